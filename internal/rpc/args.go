package rpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/multiblog/internal/cache"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
	"github.com/dropDatabas3/multiblog/internal/xmlrpc"
)

func asNonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// asInt acepta solo enteros del wire (<i4>/<int>), nunca strings numéricos.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func stringArg(args []any, i int, name string) (string, *xmlrpc.Fault) {
	if i >= len(args) {
		return "", xmlrpc.NewFault(xmlrpc.CodeBadRequest, "missing argument: %s", name)
	}
	s, ok := asNonEmptyString(args[i])
	if !ok {
		return "", xmlrpc.NewFault(xmlrpc.CodeBadRequest, "%s must be a non-empty string", name)
	}
	return s, nil
}

// resolveBlogRef acepta id numérico o nombre de blog. La resolución
// nombre→id pasa por el cache. ErrNotFound si no existe.
func (s *Service) resolveBlogRef(ctx context.Context, v any) (*core.Blog, error) {
	switch ref := v.(type) {
	case int:
		return s.Store.GetBlog(ctx, int64(ref))
	case int64:
		return s.Store.GetBlog(ctx, ref)
	case string:
		id, err := s.blogIDByName(ctx, strings.TrimSpace(ref))
		if err != nil {
			return nil, err
		}
		return s.Store.GetBlog(ctx, id)
	default:
		return nil, core.ErrInvalid
	}
}

// blogIDByName resuelve nombre→id con cache de por medio.
func (s *Service) blogIDByName(ctx context.Context, name string) (int64, error) {
	if id, ok := cache.LookupBlogID(s.Cache, name); ok {
		return id, nil
	}
	id, err := s.Store.GetBlogIDByName(ctx, name)
	if err != nil {
		return 0, err
	}
	cache.PutBlogID(s.Cache, name, id)
	return id, nil
}

// blogArg resuelve el primer argumento como referencia de blog, con los
// faults de validación habituales.
func (s *Service) blogArg(ctx context.Context, args []any, i int) (*core.Blog, *xmlrpc.Fault) {
	if i >= len(args) {
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "missing blog argument")
	}
	b, err := s.resolveBlogRef(ctx, args[i])
	switch {
	case err == nil:
		return b, nil
	case core.IsNotFound(err):
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "unknown blog")
	case errors.Is(err, core.ErrInvalid):
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "blog must be referenced by id or name")
	default:
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not resolve blog")
	}
}
