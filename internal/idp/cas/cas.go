// Package cas valida tickets contra un servidor CAS 2.0 (serviceValidate).
package cas

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/multiblog/internal/idp"
)

type Client struct {
	serverURL  string // p.ej. https://cas.example.edu/cas
	serviceURL string // URL registrada de este servicio
	http       *http.Client
}

func New(serverURL, serviceURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		serviceURL: serviceURL,
		http:       &http.Client{Timeout: timeout},
	}
}

// serviceResponse es la respuesta XML de /serviceValidate. Los tags sin
// namespace matchean el namespace cas: por nombre local.
type serviceResponse struct {
	XMLName xml.Name `xml:"serviceResponse"`
	Success *struct {
		User string `xml:"user"`
	} `xml:"authenticationSuccess"`
	Failure *struct {
		Code    string `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"authenticationFailure"`
}

func (c *Client) ValidateTicket(ctx context.Context, ticket string) (string, error) {
	if strings.TrimSpace(ticket) == "" {
		return "", idp.ErrAuthFailed
	}
	q := url.Values{}
	q.Set("ticket", ticket)
	q.Set("service", c.serviceURL)
	u := c.serverURL + "/serviceValidate?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", idp.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", idp.ErrUnavailable, resp.StatusCode)
	}

	var sr serviceResponse
	if err := xml.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("%w: %v", idp.ErrUnavailable, err)
	}
	if sr.Success == nil || strings.TrimSpace(sr.Success.User) == "" {
		if sr.Failure != nil {
			return "", fmt.Errorf("%w: %s", idp.ErrAuthFailed, strings.TrimSpace(sr.Failure.Message))
		}
		return "", idp.ErrAuthFailed
	}
	return strings.TrimSpace(sr.Success.User), nil
}
