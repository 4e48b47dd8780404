package xmlrpc

import (
	"strings"
	"testing"
)

func TestParseCall_Types(t *testing.T) {
	body := `<?xml version="1.0"?>
<methodCall>
  <methodName>svc.addUser</methodName>
  <params>
    <param><value><string>svc-bot</string></value></param>
    <param><value>implicit-string</value></param>
    <param><value><i4>42</i4></value></param>
    <param><value><boolean>1</boolean></value></param>
    <param><value><double>1.5</double></value></param>
    <param><value><array><data>
      <value><string>a</string></value>
      <value><int>2</int></value>
    </data></array></value></param>
    <param><value><struct>
      <member><name>role</name><value><string>editor</string></value></member>
    </struct></value></param>
  </params>
</methodCall>`
	name, args, err := ParseCall(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseCall: %v", err)
	}
	if name != "svc.addUser" {
		t.Fatalf("method = %q", name)
	}
	if len(args) != 7 {
		t.Fatalf("args = %d", len(args))
	}
	if args[0] != "svc-bot" || args[1] != "implicit-string" {
		t.Fatalf("strings: %v %v", args[0], args[1])
	}
	if args[2] != 42 || args[3] != true || args[4] != 1.5 {
		t.Fatalf("scalars: %v %v %v", args[2], args[3], args[4])
	}
	arr, ok := args[5].([]any)
	if !ok || len(arr) != 2 || arr[0] != "a" || arr[1] != 2 {
		t.Fatalf("array: %#v", args[5])
	}
	st, ok := args[6].(map[string]any)
	if !ok || st["role"] != "editor" {
		t.Fatalf("struct: %#v", args[6])
	}
}

func TestParseCall_Malformed(t *testing.T) {
	if _, _, err := ParseCall(strings.NewReader("<methodCall><methodName>")); err == nil {
		t.Fatal("expected error for truncated XML")
	}
	if _, _, err := ParseCall(strings.NewReader("<methodCall></methodCall>")); err == nil {
		t.Fatal("expected error for missing methodName")
	}
}

func TestWriteResponse_RoundTrip(t *testing.T) {
	var b strings.Builder
	err := WriteResponse(&b, map[string]any{
		"blogid": int64(7),
		"name":   "physics",
		"public": 1,
		"roles":  []string{"editor", "author"},
		"ok":     true,
	})
	if err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		"<methodResponse>",
		"<name>blogid</name><value><int>7</int></value>",
		"<string>physics</string>",
		"<boolean>1</boolean>",
		"<string>editor</string>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteFault(t *testing.T) {
	var b strings.Builder
	if err := WriteFault(&b, NewFault(403, "You are not authorized to view this blog.")); err != nil {
		t.Fatalf("WriteFault: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "<fault>") ||
		!strings.Contains(out, "<name>faultCode</name><value><int>403</int></value>") ||
		!strings.Contains(out, "not authorized") {
		t.Fatalf("unexpected fault body:\n%s", out)
	}
}

func TestEncodeValue_EscapesXML(t *testing.T) {
	var b strings.Builder
	if err := WriteResponse(&b, `<script>&"`); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	if strings.Contains(b.String(), "<script>") {
		t.Fatalf("unescaped markup in: %s", b.String())
	}
}
