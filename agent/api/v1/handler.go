package v1

import (
	"net/http"

	"github.com/erikmagkekse/nfs-exports/agent/share"
	"github.com/erikmagkekse/nfs-exports/agent/share/nfs"
	"github.com/erikmagkekse/nfs-exports/model"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	Registry *share.Registry
	NFS      *nfs.Manager
}

func protocolOrDefault(p string) string {
	if p == "" {
		return model.ProtocolNFS
	}
	return p
}

func (h *Handler) lookup(proto string) (share.Ops, error) {
	return h.Registry.Lookup(protocolOrDefault(proto))
}

// --- Shares ---

func (h *Handler) EnableShare(c *echo.Context) error {
	var req ShareRequest
	if err := c.Bind(&req); err != nil || req.Mountpoint == "" {
		return badRequest(c, "mountpoint is required")
	}

	proto := protocolOrDefault(req.Protocol)
	ops, err := h.lookup(proto)
	if err != nil {
		return ShareError(c, err)
	}

	s := share.New(req.Mountpoint)
	s.SetOptions(proto, req.Options)
	if err := ops.Enable(c.Request().Context(), s); err != nil {
		return ShareError(c, err)
	}
	log.Info().Str("mountpoint", req.Mountpoint).Str("protocol", proto).Msg("share enabled via api")

	if req.Commit {
		if err := ops.Commit(c.Request().Context()); err != nil {
			return ShareError(c, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DisableShare(c *echo.Context) error {
	var req ShareRequest
	if err := c.Bind(&req); err != nil || req.Mountpoint == "" {
		return badRequest(c, "mountpoint is required")
	}

	ops, err := h.lookup(req.Protocol)
	if err != nil {
		return ShareError(c, err)
	}

	if err := ops.Disable(c.Request().Context(), share.New(req.Mountpoint)); err != nil {
		return ShareError(c, err)
	}
	log.Info().Str("mountpoint", req.Mountpoint).Str("protocol", protocolOrDefault(req.Protocol)).Msg("share disabled via api")

	if req.Commit {
		if err := ops.Commit(c.Request().Context()); err != nil {
			return ShareError(c, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ShareStatus(c *echo.Context) error {
	mountpoint := c.QueryParam("mountpoint")
	if mountpoint == "" {
		return badRequest(c, "mountpoint is required")
	}
	proto := protocolOrDefault(c.QueryParam("protocol"))

	ops, err := h.lookup(proto)
	if err != nil {
		return ShareError(c, err)
	}

	shared, err := ops.IsShared(share.New(mountpoint))
	if err != nil {
		return ShareError(c, err)
	}
	return c.JSON(http.StatusOK, ShareStatusResponse{Mountpoint: mountpoint, Protocol: proto, Shared: shared})
}

func (h *Handler) ValidateOptions(c *echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ops, err := h.lookup(req.Protocol)
	if err != nil {
		return ShareError(c, err)
	}
	if err := ops.ValidateOptions(req.Options); err != nil {
		return ShareError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Commit(c *echo.Context) error {
	if err := h.Registry.CommitAll(c.Request().Context()); err != nil {
		return ShareError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Exports ---

func (h *Handler) ListExports(c *echo.Context) error {
	entries, err := h.NFS.List()
	if err != nil {
		return ShareError(c, err)
	}
	if entries == nil {
		entries = []ExportEntry{}
	}
	return c.JSON(http.StatusOK, ExportListResponse{Exports: entries, Total: len(entries)})
}
