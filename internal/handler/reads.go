package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"switchgraph/internal/domain"
)

func (a *API) listKind(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, ip := r.Context(), chi.URLParam(r, "ip")

		var (
			out any
			err error
		)
		switch kind {
		case domain.KindInterface:
			out, err = a.svc.ListInterfaces(ctx, ip)
		case domain.KindVLAN:
			out, err = a.svc.ListVLANsWithMembers(ctx, ip)
		case domain.KindPortGroup:
			out, err = a.svc.ListPortGroupsWithMembers(ctx, ip)
		case domain.KindSTPPort:
			out, err = a.svc.ListSTPPorts(ctx, ip)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (a *API) getKind(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := a.entity(r.Context(), kind, chi.URLParam(r, "ip"), urlKey(r, "key"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// entity loads one entity, with its members for the kinds that have them
func (a *API) entity(ctx context.Context, kind domain.Kind, ip, key string) (any, error) {
	switch kind {
	case domain.KindVLAN:
		return a.svc.GetVLANWithMembers(ctx, ip, key)
	case domain.KindPortGroup:
		return a.svc.GetPortGroupWithMembers(ctx, ip, key)
	case domain.KindSTPPort:
		return a.svc.GetSTPPort(ctx, ip, key)
	default:
		return a.svc.GetInterface(ctx, ip, key)
	}
}
