package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	kterrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// layoutRequest is the body of every /v1 request. The layout options sit
// at the top level next to the tree.
type layoutRequest struct {
	Tree    *family.Tree `json:"tree,omitempty"`
	TreeRef string       `json:"treeRef,omitempty"`
	pipeline.Options
}

type layoutResponse struct {
	TreeHash string        `json:"treeHash"`
	Cached   bool          `json:"cached"`
	Layout   layout.Result `json:"layout"`
}

type debugResponse struct {
	Layout    layout.Result     `json:"layout"`
	Snapshots []layout.Snapshot `json:"snapshots"`
}

type invalidateResponse struct {
	TreeHash string `json:"treeHash"`
	Removed  int    `json:"removed"`
}

var contentTypes = map[string]string{
	pipeline.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
	pipeline.FormatPDF: "application/pdf",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	tree, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hash, err := pipeline.TreeHash(tree)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), tree, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{TreeHash: hash, Cached: hit, Layout: res})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	tree, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, snaps, err := s.runner.Debug(r.Context(), tree, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debugResponse{Layout: res, Snapshots: snaps})
}

// handleDOT renders the union graph. The format comes from ?format=
// and defaults to svg.
func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if _, ok := contentTypes[format]; !ok {
		WriteAPIError(w, http.StatusBadRequest, string(kterrors.ErrCodeInvalidFormat),
			"format must be one of: dot, svg, png, pdf")
		return
	}

	tree, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	result, err := s.runner.Execute(r.Context(), tree, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	tree, _, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hash, err := pipeline.TreeHash(tree)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.runner.Invalidate(r.Context(), tree)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invalidateResponse{TreeHash: hash, Removed: n})
}

// decode reads a request body. Omitted policy fields take the default
// policy.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*family.Tree, pipeline.Options, error) {
	req := layoutRequest{Options: pipeline.Options{Policy: layout.DefaultPolicy()}}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, pipeline.Options{}, kterrors.New(kterrors.ErrCodeInvalidInput, "invalid request body: %v", err)
	}
	tree, err := s.tree(r.Context(), req)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	return tree, req.Options, nil
}

func (s *Server) tree(ctx context.Context, req layoutRequest) (*family.Tree, error) {
	switch {
	case req.Tree != nil && req.TreeRef != "":
		return nil, kterrors.New(kterrors.ErrCodeInvalidInput, "give either tree or treeRef, not both")
	case req.Tree != nil:
		req.Tree.Normalize()
		if err := req.Tree.Validate(); err != nil {
			return nil, err
		}
		return req.Tree, nil
	case req.TreeRef != "":
		if s.opts.Stores == nil {
			return nil, kterrors.New(kterrors.ErrCodeUnsupported, "no tree stores configured")
		}
		return s.runner.Load(ctx, s.opts.Stores, req.TreeRef)
	default:
		return nil, kterrors.New(kterrors.ErrCodeInvalidInput, "tree or treeRef is required")
	}
}
