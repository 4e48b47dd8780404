package xmlrpc

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Lado cliente del codec: lo usan multiblogctl y los tests de integración.

// WriteCall serializa un <methodCall>.
func WriteCall(w io.Writer, method string, params []any) error {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<methodCall><methodName>")
	xml.EscapeText(&b, []byte(method))
	b.WriteString("</methodName><params>")
	for _, p := range params {
		b.WriteString("<param>")
		if err := encodeValue(&b, p); err != nil {
			return err
		}
		b.WriteString("</param>")
	}
	b.WriteString("</params></methodCall>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

type xClientResponse struct {
	XMLName xml.Name `xml:"methodResponse"`
	Params  []xParam `xml:"params>param"`
	Fault   *xValue  `xml:"fault>value"`
}

// ParseResponse decodifica un <methodResponse>: valor o fault.
func ParseResponse(r io.Reader) (any, *Fault, error) {
	var resp xClientResponse
	if err := xml.NewDecoder(r).Decode(&resp); err != nil {
		return nil, nil, fmt.Errorf("malformed methodResponse: %w", err)
	}
	if resp.Fault != nil {
		fv, err := decodeValue(*resp.Fault)
		if err != nil {
			return nil, nil, err
		}
		m, ok := fv.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("malformed fault")
		}
		code, _ := m["faultCode"].(int)
		msg, _ := m["faultString"].(string)
		return nil, &Fault{Code: code, Message: msg}, nil
	}
	if len(resp.Params) == 0 {
		return nil, nil, fmt.Errorf("empty methodResponse")
	}
	v, err := decodeValue(resp.Params[0].Value)
	if err != nil {
		return nil, nil, err
	}
	return v, nil, nil
}

// Client habla XML-RPC sobre HTTP POST.
type Client struct {
	URL  string
	HTTP *http.Client
}

// Call invoca method con params. Un fault del server se retorna como *Fault
// en el error.
func (c *Client) Call(ctx context.Context, method string, params ...any) (any, error) {
	var buf bytes.Buffer
	if err := WriteCall(&buf, method, params); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("xmlrpc: unexpected status %d", resp.StatusCode)
	}
	v, f, err := ParseResponse(resp.Body)
	if err != nil {
		return nil, err
	}
	if f != nil {
		return nil, f
	}
	return v, nil
}
