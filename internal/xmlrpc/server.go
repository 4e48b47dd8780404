package xmlrpc

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Request es una llamada XML-RPC en curso. Session vive durante todo el
// request HTTP: las sub-llamadas de un system.multicall comparten la misma
// sesión, igual que compartían la instancia del server original.
type Request struct {
	Method  string
	Args    []any
	HTTP    *http.Request
	RespHdr http.Header

	session map[string]any
}

// SessionGet retorna un valor de sesión por clave (nil si no existe).
func (r *Request) SessionGet(key string) any {
	if r.session == nil {
		return nil
	}
	return r.session[key]
}

// SessionSet guarda un valor de sesión por clave.
func (r *Request) SessionSet(key string, v any) {
	if r.session == nil {
		r.session = map[string]any{}
	}
	r.session[key] = v
}

// Handler implementa un método. Retorna el valor de respuesta o un *Fault.
type Handler func(ctx context.Context, req *Request) (any, *Fault)

// Hooks permite observar llamadas y faults (logging/metrics).
type Hooks struct {
	OnCall  func(method string)
	OnFault func(method string, f *Fault)
	OnDone  func(method string, d time.Duration)
}

// Server despacha métodos XML-RPC sobre POST.
type Server struct {
	methods map[string]Handler
	hooks   Hooks
}

func NewServer(hooks Hooks) *Server {
	return &Server{methods: map[string]Handler{}, hooks: hooks}
}

// Register asocia un nombre de método con su handler.
func (s *Server) Register(name string, h Handler) {
	s.methods[name] = h
}

// Methods retorna los nombres registrados, ordenados (system.listMethods).
func (s *Server) Methods() []string {
	out := make([]string, 0, len(s.methods)+2)
	for k := range s.methods {
		out = append(out, k)
	}
	out = append(out, "system.listMethods", "system.multicall")
	sort.Strings(out)
	return out
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name, args, err := ParseCall(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.writeFault(w, "", &Fault{Code: CodeBadRequest, Message: "parse error: not well formed"})
		return
	}

	req := &Request{Method: name, Args: args, HTTP: r, RespHdr: w.Header()}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	result, fault := s.dispatch(r.Context(), req, false)
	if fault != nil {
		s.writeFault(w, name, fault)
		return
	}
	_ = WriteResponse(w, result)
}

// dispatch ejecuta un método por nombre, incluyendo los métodos system.*.
// inMulticall evita multicalls anidados.
func (s *Server) dispatch(ctx context.Context, req *Request, inMulticall bool) (any, *Fault) {
	if s.hooks.OnCall != nil {
		s.hooks.OnCall(req.Method)
	}
	if s.hooks.OnDone != nil {
		start := time.Now()
		defer func() { s.hooks.OnDone(req.Method, time.Since(start)) }()
	}
	switch req.Method {
	case "system.listMethods":
		names := s.Methods()
		out := make([]any, len(names))
		for i, n := range names {
			out[i] = n
		}
		return out, nil
	case "system.multicall":
		if inMulticall {
			return nil, NewFault(CodeBadRequest, "recursive system.multicall forbidden")
		}
		return s.multicall(ctx, req)
	}
	h, ok := s.methods[req.Method]
	if !ok {
		return nil, NewFault(CodeBadRequest, "server error. requested method %s does not exist", req.Method)
	}
	// OnFault lo dispara quien escribe la respuesta (ServeHTTP o multicall)
	// para contar cada fault exactamente una vez.
	return h(ctx, req)
}

// multicall ejecuta una lista de {methodName, params} y retorna por cada una
// [valor] o un struct fault. Los faults individuales no abortan el lote.
func (s *Server) multicall(ctx context.Context, req *Request) (any, *Fault) {
	if len(req.Args) != 1 {
		return nil, NewFault(CodeBadRequest, "system.multicall expects one array parameter")
	}
	calls, ok := req.Args[0].([]any)
	if !ok {
		return nil, NewFault(CodeBadRequest, "system.multicall expects one array parameter")
	}

	results := make([]any, 0, len(calls))
	for _, c := range calls {
		m, ok := c.(map[string]any)
		if !ok {
			results = append(results, FaultStruct(NewFault(CodeBadRequest, "multicall entry must be a struct")))
			continue
		}
		name, _ := m["methodName"].(string)
		params, _ := m["params"].([]any)
		sub := &Request{
			Method:  name,
			Args:    params,
			HTTP:    req.HTTP,
			RespHdr: req.RespHdr,
			session: req.session,
		}
		v, f := s.dispatch(ctx, sub, true)
		// la sesión puede haberse creado en la sub-llamada
		req.session = sub.session
		if f != nil {
			if s.hooks.OnFault != nil {
				s.hooks.OnFault(name, f)
			}
			results = append(results, FaultStruct(f))
			continue
		}
		results = append(results, []any{v})
	}
	return results, nil
}

func (s *Server) writeFault(w http.ResponseWriter, method string, f *Fault) {
	if s.hooks.OnFault != nil {
		s.hooks.OnFault(method, f)
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_ = WriteFault(w, f)
}
