package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/transport"
)

const maxBodyBytes = 1 << 20

// VLANRequest is the body of PUT /vlans/{name}. The VLAN id is taken from
// the name when omitted.
type VLANRequest struct {
	VlanID      int    `json:"vlan_id,omitempty"`
	MTU         int    `json:"mtu,omitempty"`
	AdminStatus string `json:"admin_status,omitempty"`
	Autostate   string `json:"autostate,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	SAGIP       string `json:"sag_ip_address,omitempty"`
}

// MemberRequest is one member of POST /vlans/{name}/members
type MemberRequest struct {
	Interface string             `json:"interface"`
	Mode      domain.TaggingMode `json:"tagging_mode"`
}

// MembersRequest is the body of POST /vlans/{name}/members
type MembersRequest struct {
	Members []MemberRequest `json:"members"`
}

// SpeedRequest is the body of PUT /port-groups/{id}/speed
type SpeedRequest struct {
	Speed domain.Speed `json:"speed"`
}

// STPPortRequest is the body of PUT /stp-ports/{if}. Omitted attributes are
// left unchanged on the device.
type STPPortRequest struct {
	EdgePort              *domain.EdgePort `json:"edge_port,omitempty"`
	LinkType              string           `json:"link_type,omitempty"`
	Guard                 string           `json:"guard,omitempty"`
	BPDUFilter            *bool            `json:"bpdu_filter,omitempty"`
	BPDUGuard             *bool            `json:"bpdu_guard,omitempty"`
	BPDUGuardPortShutdown *bool            `json:"bpdu_guard_port_shutdown,omitempty"`
	Portfast              *bool            `json:"portfast,omitempty"`
	UplinkFast            *bool            `json:"uplink_fast,omitempty"`
	Cost                  *int             `json:"cost,omitempty"`
	PortPriority          *int             `json:"port_priority,omitempty"`
	STPEnabled            *bool            `json:"stp_enabled,omitempty"`
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return serrors.Invalid("decode", "invalid request body: %v", err)
	}
	return nil
}

// vlanID resolves the id of the VLAN named in the URL
func vlanID(name string) (int, error) {
	id, err := domain.VLANID(name)
	if err != nil {
		return 0, serrors.Invalid("vlan", "%v", err)
	}
	return id, nil
}

func (a *API) applied(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) configureVLAN(w http.ResponseWriter, r *http.Request) {
	name := urlKey(r, "key")

	var req VLANRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.VlanID == 0 {
		id, err := vlanID(name)
		if err != nil {
			writeError(w, err)
			return
		}
		req.VlanID = id
	}

	a.applied(w, a.svc.ConfigureVLAN(r.Context(), chi.URLParam(r, "ip"), transport.ConfigureVLAN{
		VlanID:      req.VlanID,
		Name:        name,
		MTU:         req.MTU,
		AdminStatus: req.AdminStatus,
		Autostate:   req.Autostate,
		IPAddress:   req.IPAddress,
		SAGIP:       req.SAGIP,
	}))
}

func (a *API) deleteVLAN(w http.ResponseWriter, r *http.Request) {
	a.applied(w, a.svc.DeleteVLAN(r.Context(), chi.URLParam(r, "ip"), urlKey(r, "key")))
}

func (a *API) addVLANMembers(w http.ResponseWriter, r *http.Request) {
	id, err := vlanID(urlKey(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req MembersRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	m := transport.AddVLANMembers{VlanID: id}
	for _, mem := range req.Members {
		m.Members = append(m.Members, transport.VLANMemberSpec{Interface: mem.Interface, Mode: mem.Mode})
	}
	a.applied(w, a.svc.AddVLANMembers(r.Context(), chi.URLParam(r, "ip"), m))
}

// removeVLANMember removes {if} from the VLAN, or every member when the
// route has no interface
func (a *API) removeVLANMember(w http.ResponseWriter, r *http.Request) {
	id, err := vlanID(urlKey(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	a.applied(w, a.svc.RemoveVLANMember(r.Context(), chi.URLParam(r, "ip"), id, urlKey(r, "if")))
}

func (a *API) setPortGroupSpeed(w http.ResponseWriter, r *http.Request) {
	var req SpeedRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	a.applied(w, a.svc.SetPortGroupSpeed(r.Context(), chi.URLParam(r, "ip"), transport.SetPortGroupSpeed{
		ID:    urlKey(r, "key"),
		Speed: req.Speed,
	}))
}

func (a *API) configureSTPPort(w http.ResponseWriter, r *http.Request) {
	var req STPPortRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	m := transport.ConfigureSTPPort{
		IfName:                urlKey(r, "key"),
		LinkType:              req.LinkType,
		Guard:                 req.Guard,
		BPDUFilter:            req.BPDUFilter,
		BPDUGuard:             req.BPDUGuard,
		BPDUGuardPortShutdown: req.BPDUGuardPortShutdown,
		Portfast:              req.Portfast,
		UplinkFast:            req.UplinkFast,
		Cost:                  req.Cost,
		PortPriority:          req.PortPriority,
		STPEnabled:            req.STPEnabled,
	}
	if req.EdgePort != nil {
		m.EdgePort = *req.EdgePort
	}
	a.applied(w, a.svc.ConfigureSTPPort(r.Context(), chi.URLParam(r, "ip"), m))
}

func (a *API) deleteSTPPort(w http.ResponseWriter, r *http.Request) {
	a.applied(w, a.svc.DeleteSTPPort(r.Context(), chi.URLParam(r, "ip"), urlKey(r, "key")))
}
