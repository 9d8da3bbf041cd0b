package wayland

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/bryanchriswhite/screengrab/internal/logger"
)

// Portal D-Bus constants
const (
	portalService   = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	screenshotIface = "org.freedesktop.portal.Screenshot"
	requestIface    = "org.freedesktop.portal.Request"
)

// Response codes of org.freedesktop.portal.Request.Response
const (
	responseSuccess   = 0
	responseCancelled = 1
)

var errPortalDenied = errors.New("portal request denied")

// portal takes screenshots through xdg-desktop-portal
type portal struct {
	conn    *dbus.Conn
	timeout time.Duration
}

// Screenshot asks the portal for a non-interactive full-desktop screenshot
// and returns the path of the PNG it wrote
func (p *portal) Screenshot() (string, error) {
	log := logger.WithComponent("portal")
	obj := p.conn.Object(portalService, portalPath)

	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(handleToken()),
		"modal":        dbus.MakeVariant(false),
		"interactive":  dbus.MakeVariant(false),
	}

	// Set up response channel BEFORE making the call
	responseChan := make(chan *dbus.Signal, 10)

	matchRule := fmt.Sprintf("type='signal',interface='%s',member='Response'", requestIface)
	if err := p.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		log.Warn().Err(err).Msg("Failed to add match rule")
	}

	p.conn.Signal(responseChan)
	defer p.conn.RemoveSignal(responseChan)

	var requestPath dbus.ObjectPath
	err := obj.Call(screenshotIface+".Screenshot", 0, "", options).Store(&requestPath)
	if err != nil {
		return "", fmt.Errorf("Screenshot call failed: %w", err)
	}

	log.Debug().Str("request_path", string(requestPath)).Msg("Waiting for Screenshot response")

	timeout := time.After(p.timeout)
	for {
		select {
		case <-timeout:
			return "", fmt.Errorf("timeout waiting for Screenshot response after %s", p.timeout)
		case sig := <-responseChan:
			if sig.Path != requestPath || sig.Name != requestIface+".Response" {
				continue
			}
			uri, err := parseResponse(sig.Body)
			if err != nil {
				return "", err
			}
			return parseFileURI(uri)
		}
	}
}

// handleToken builds a request token; tokens must be valid object path
// elements, so the uuid dashes are dropped
func handleToken() string {
	return "screengrab_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// parseResponse extracts the screenshot uri from a Response signal body
func parseResponse(body []interface{}) (string, error) {
	if len(body) < 2 {
		return "", fmt.Errorf("invalid response: %d values", len(body))
	}
	code, ok := body[0].(uint32)
	if !ok {
		return "", fmt.Errorf("invalid response code type %T", body[0])
	}
	switch code {
	case responseSuccess:
	case responseCancelled:
		return "", fmt.Errorf("%w: cancelled", errPortalDenied)
	default:
		return "", fmt.Errorf("%w (code %d)", errPortalDenied, code)
	}

	results, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return "", fmt.Errorf("invalid response results type %T", body[1])
	}
	v, ok := results["uri"]
	if !ok {
		return "", errors.New("no uri in response")
	}
	uri, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected uri type: %T", v.Value())
	}
	return uri, nil
}

// parseFileURI turns a file:// uri into a local path
func parseFileURI(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid screenshot uri %q: %w", raw, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("screenshot uri %q is not a local file", raw)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("screenshot uri %q names remote host %q", raw, u.Host)
	}
	if u.Path == "" {
		return "", fmt.Errorf("screenshot uri %q has no path", raw)
	}
	return u.Path, nil
}
