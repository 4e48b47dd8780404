package xmlrpc

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Modelo de valores: string, int, bool, float64, []any y map[string]any.
// Es el subconjunto de XML-RPC que usan los once métodos; dateTime y base64
// no aparecen en este protocolo.

type xCall struct {
	XMLName xml.Name `xml:"methodCall"`
	Name    string   `xml:"methodName"`
	Params  []xParam `xml:"params>param"`
}

type xResponse struct {
	XMLName xml.Name `xml:"methodResponse"`
	Params  []xParam `xml:"params>param"`
}

type xParam struct {
	Value xValue `xml:"value"`
}

type xValue struct {
	Raw    string   `xml:",chardata"` // valor sin tipo = string
	Str    *string  `xml:"string"`
	I4     *string  `xml:"i4"`
	Int    *string  `xml:"int"`
	Bool   *string  `xml:"boolean"`
	Double *string  `xml:"double"`
	Array  *xArray  `xml:"array"`
	Struct *xStruct `xml:"struct"`
}

type xArray struct {
	Values []xValue `xml:"data>value"`
}

type xStruct struct {
	Members []xMember `xml:"member"`
}

type xMember struct {
	Name  string `xml:"name"`
	Value xValue `xml:"value"`
}

// ParseCall decodifica un <methodCall> y retorna (methodName, args).
func ParseCall(r io.Reader) (string, []any, error) {
	var c xCall
	if err := xml.NewDecoder(r).Decode(&c); err != nil {
		return "", nil, fmt.Errorf("malformed methodCall: %w", err)
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", nil, fmt.Errorf("missing methodName")
	}
	args := make([]any, 0, len(c.Params))
	for _, p := range c.Params {
		v, err := decodeValue(p.Value)
		if err != nil {
			return "", nil, err
		}
		args = append(args, v)
	}
	return name, args, nil
}

func decodeValue(v xValue) (any, error) {
	switch {
	case v.Str != nil:
		return *v.Str, nil
	case v.I4 != nil:
		return parseInt(*v.I4)
	case v.Int != nil:
		return parseInt(*v.Int)
	case v.Bool != nil:
		switch strings.TrimSpace(*v.Bool) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", *v.Bool)
	case v.Double != nil:
		f, err := strconv.ParseFloat(strings.TrimSpace(*v.Double), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double %q", *v.Double)
		}
		return f, nil
	case v.Array != nil:
		out := make([]any, 0, len(v.Array.Values))
		for _, el := range v.Array.Values {
			dv, err := decodeValue(el)
			if err != nil {
				return nil, err
			}
			out = append(out, dv)
		}
		return out, nil
	case v.Struct != nil:
		out := make(map[string]any, len(v.Struct.Members))
		for _, m := range v.Struct.Members {
			dv, err := decodeValue(m.Value)
			if err != nil {
				return nil, err
			}
			out[strings.TrimSpace(m.Name)] = dv
		}
		return out, nil
	default:
		// <value>texto</value> sin tipo explícito
		return strings.TrimSpace(v.Raw), nil
	}
}

func parseInt(s string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid int %q", s)
	}
	return n, nil
}

// WriteResponse serializa un <methodResponse> exitoso con un solo param.
func WriteResponse(w io.Writer, v any) error {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<methodResponse><params><param>")
	if err := encodeValue(&b, v); err != nil {
		return err
	}
	b.WriteString("</param></params></methodResponse>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFault serializa un <methodResponse> con <fault>.
// Por convención XML-RPC el status HTTP sigue siendo 200.
func WriteFault(w io.Writer, f *Fault) error {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<methodResponse><fault>")
	if err := encodeValue(&b, FaultStruct(f)); err != nil {
		return err
	}
	b.WriteString("</fault></methodResponse>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// FaultStruct es la forma struct de un fault (también usada por multicall).
func FaultStruct(f *Fault) map[string]any {
	return map[string]any{"faultCode": f.Code, "faultString": f.Message}
}

func encodeValue(b *strings.Builder, v any) error {
	b.WriteString("<value>")
	switch t := v.(type) {
	case nil:
		b.WriteString("<string></string>")
	case string:
		b.WriteString("<string>")
		xml.EscapeText(b, []byte(t))
		b.WriteString("</string>")
	case bool:
		if t {
			b.WriteString("<boolean>1</boolean>")
		} else {
			b.WriteString("<boolean>0</boolean>")
		}
	case int:
		fmt.Fprintf(b, "<int>%d</int>", t)
	case int64:
		fmt.Fprintf(b, "<int>%d</int>", t)
	case float64:
		fmt.Fprintf(b, "<double>%g</double>", t)
	case []any:
		b.WriteString("<array><data>")
		for _, el := range t {
			if err := encodeValue(b, el); err != nil {
				return err
			}
		}
		b.WriteString("</data></array>")
	case []string:
		b.WriteString("<array><data>")
		for _, el := range t {
			if err := encodeValue(b, el); err != nil {
				return err
			}
		}
		b.WriteString("</data></array>")
	case map[string]any:
		b.WriteString("<struct>")
		for _, k := range sortedKeys(t) {
			b.WriteString("<member><name>")
			xml.EscapeText(b, []byte(k))
			b.WriteString("</name>")
			if err := encodeValue(b, t[k]); err != nil {
				return err
			}
			b.WriteString("</member>")
		}
		b.WriteString("</struct>")
	default:
		return fmt.Errorf("xmlrpc: unsupported type %T", v)
	}
	b.WriteString("</value>")
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Orden estable para respuestas deterministas (y tests).
	sort.Strings(keys)
	return keys
}
