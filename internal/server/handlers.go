package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Faultbox/xaytool/pkg/export"
	"github.com/Faultbox/xaytool/pkg/formats"
)

var contentTypes = map[string]string{
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".obj":  "text/plain; charset=utf-8",
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Error: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// statusFor maps decode and request errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusNotFound
	case formats.IsNotXAY(err):
		return http.StatusUnsupportedMediaType
	case formats.IsCorrupt(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// meshLabel names the mesh from the ?name= query, falling back to "mesh".
func meshLabel(r *http.Request) string {
	if name := formats.MeshName(r.URL.Query().Get("name")); name != "" {
		return name
	}
	return "mesh"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, export.Formats())
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	e, err := export.ForFormat(mux.Vars(r)["format"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	label := meshLabel(r)
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes())

	var out bytes.Buffer
	m, err := export.Convert(body, label, e, &out, export.Options{Strict: s.strict})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.Debug("converted",
		zap.String("mesh", m.Name),
		zap.String("format", e.Name()),
		zap.Int("vertices", len(m.Positions)),
		zap.Int("faces", len(m.Faces)))

	fileName := label + e.Extension()
	w.Header().Set("Content-Type", contentTypes[path.Ext(fileName)])
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	out.WriteTo(w)
}

// InspectResponse summarizes a decoded XAY file.
type InspectResponse struct {
	Name         string           `json:"name"`
	Version      uint8            `json:"version"`
	Vertices     uint32           `json:"vertices"`
	Faces        uint32           `json:"faces"`
	IndexBits    int              `json:"index_bits"`
	UVChannels   uint8            `json:"uv_channels"`
	HasColors    bool             `json:"has_colors"`
	Sections     []InspectSection `json:"sections"`
	FacesPerSlot []int            `json:"faces_per_slot"`
	BoundsMin    [3]float32       `json:"bounds_min"`
	BoundsMax    [3]float32       `json:"bounds_max"`
	MaxExtent    float32          `json:"max_extent"`
}

// InspectSection is one material section in InspectResponse.
type InspectSection struct {
	Name      string `json:"name"`
	FirstFace uint32 `json:"first_face"`
}

// Inspect builds the summary served by /v1/inspect.
func Inspect(x *formats.XAY, name string) InspectResponse {
	m := x.Assemble(name, formats.ColorLinear)
	min, max := m.Bounds()
	ext := m.Extent()

	resp := InspectResponse{
		Name:         name,
		Version:      x.Header.Version,
		Vertices:     x.Header.VertexCount,
		Faces:        x.Header.FaceCount,
		IndexBits:    x.Header.IndexSize() * 8,
		UVChannels:   x.Header.UVChannelCount,
		HasColors:    x.Header.HasVertexColors,
		Sections:     make([]InspectSection, len(x.Sections)),
		FacesPerSlot: make([]int, len(x.Sections)+1),
		BoundsMin:    min,
		BoundsMax:    max,
		MaxExtent:    max3(ext[0], ext[1], ext[2]),
	}
	for i, sec := range x.Sections {
		resp.Sections[i] = InspectSection{Name: sec.Name, FirstFace: sec.FirstFace}
	}
	for _, slot := range m.FaceMaterials {
		resp.FacesPerSlot[slot]++
	}
	return resp
}

func max3(a, b, c float32) float32 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	x, err := formats.ParseXAYWithOptions(data, formats.XAYOptions{Strict: s.strict})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, Inspect(x, meshLabel(r)))
}
