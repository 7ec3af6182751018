package export

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/xaytool/pkg/formats"
)

func TestForFormat(t *testing.T) {
	tests := []struct {
		name     string
		wantExt  string
		wantEnc  formats.ColorEncoding
		wantErr  bool
		wantName string
	}{
		{name: "glb", wantExt: ".glb", wantEnc: formats.ColorLinear, wantName: "glb"},
		{name: "GLTF", wantExt: ".gltf", wantEnc: formats.ColorLinear, wantName: "gltf"},
		{name: "obj", wantExt: ".obj", wantEnc: formats.ColorSRGB, wantName: "obj"},
		{name: "fbx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ForFormat(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Fatalf("error = %v, want ErrUnknownFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ForFormat(%q) failed: %v", tt.name, err)
			}
			if e.Extension() != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", e.Extension(), tt.wantExt)
			}
			if e.ColorEncoding() != tt.wantEnc {
				t.Errorf("ColorEncoding() = %v, want %v", e.ColorEncoding(), tt.wantEnc)
			}
			if e.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", e.Name(), tt.wantName)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	got := strings.Join(Formats(), ",")
	if got != "glb,gltf,obj" {
		t.Errorf("Formats() = %s, want glb,gltf,obj", got)
	}
}

func TestConvert_GLB(t *testing.T) {
	var out bytes.Buffer
	m, err := Convert(bytes.NewReader(makeTestXAY(t)), "Crate.xay", &GLTF{Binary: true}, &out, Options{Strict: true})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if m.Name != "Crate" {
		t.Errorf("mesh name = %q, want Crate", m.Name)
	}

	if !bytes.HasPrefix(out.Bytes(), []byte("glTF")) {
		t.Fatal("output is not a GLB container")
	}

	doc := decodeGLTF(t, out.Bytes())
	checkGLTFDocument(t, doc)
}

func TestConvert_GLTFJSON(t *testing.T) {
	var out bytes.Buffer
	if _, err := Convert(bytes.NewReader(makeTestXAY(t)), "Crate.xay", &GLTF{}, &out, Options{}); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !strings.Contains(out.String(), "data:application/octet-stream;base64,") {
		t.Error("JSON glTF must embed its buffer")
	}

	doc := decodeGLTF(t, out.Bytes())
	checkGLTFDocument(t, doc)
}

func TestConvert_DecodeErrors(t *testing.T) {
	data := makeTestXAY(t)

	var out bytes.Buffer
	_, err := Convert(bytes.NewReader(data[:30]), "cut.xay", &OBJ{}, &out, Options{})
	if !errors.Is(err, formats.ErrTruncatedXAYData) {
		t.Errorf("error = %v, want ErrTruncatedXAYData", err)
	}
	if out.Len() != 0 {
		t.Errorf("wrote %d bytes for a failed decode", out.Len())
	}

	_, err = Convert(strings.NewReader("not a mesh at all"), "readme.txt", &OBJ{}, &out, Options{})
	if !formats.IsNotXAY(err) {
		t.Errorf("IsNotXAY(%v) = false", err)
	}
}

func TestConvert_NoFaces(t *testing.T) {
	x := testXAY()
	x.Faces = nil
	data, err := x.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	for _, e := range []Exporter{&GLTF{Binary: true}, &GLTF{}} {
		t.Run(e.Name(), func(t *testing.T) {
			var out bytes.Buffer
			if _, err := Convert(bytes.NewReader(data), "points.xay", e, &out, Options{}); err != nil {
				t.Fatalf("Convert failed: %v", err)
			}

			doc := decodeGLTF(t, out.Bytes())
			if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 1 {
				t.Fatalf("want one mesh with one primitive, got %+v", doc.Meshes)
			}
			p := doc.Meshes[0].Primitives[0]
			if p.Mode != gltf.PrimitivePoints {
				t.Errorf("primitive mode = %v, want points", p.Mode)
			}
			if p.Indices != nil {
				t.Error("point primitive must not carry indices")
			}
			if pos, ok := p.Attributes["POSITION"]; !ok || doc.Accessors[pos].Count != 4 {
				t.Errorf("POSITION accessor missing or wrong count: %+v", p.Attributes)
			}
		})
	}

	var out bytes.Buffer
	if _, err := Convert(bytes.NewReader(data), "points.xay", &OBJ{}, &out, Options{}); err != nil {
		t.Fatalf("OBJ Convert failed: %v", err)
	}
	if strings.Contains(out.String(), "\nf ") {
		t.Errorf("OBJ without faces wrote face lines:\n%s", out.String())
	}
}

func TestBuildGLTF_NoVertices(t *testing.T) {
	doc, err := BuildGLTF(&formats.XAYMesh{Name: "empty"})
	if err != nil {
		t.Fatalf("BuildGLTF failed: %v", err)
	}
	if len(doc.Meshes) != 0 {
		t.Errorf("got %d meshes, want none", len(doc.Meshes))
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Name != "empty" || doc.Nodes[0].Mesh != nil {
		t.Errorf("want a single empty node, got %+v", doc.Nodes)
	}

	var out bytes.Buffer
	if err := (&GLTF{Binary: true}).Export(&out, &formats.XAYMesh{Name: "empty"}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	decodeGLTF(t, out.Bytes())
}

func TestBuildGLTF_NoMaterials(t *testing.T) {
	x := testXAY()
	x.Sections = nil
	x.Colors = nil

	doc, err := BuildGLTF(x.Assemble("bare", formats.ColorLinear))
	if err != nil {
		t.Fatalf("BuildGLTF failed: %v", err)
	}
	if len(doc.Materials) != 0 {
		t.Errorf("got %d materials, want 0", len(doc.Materials))
	}
	prims := doc.Meshes[0].Primitives
	if len(prims) != 1 {
		t.Fatalf("got %d primitives, want 1", len(prims))
	}
	if prims[0].Material != nil {
		t.Error("primitive has a material without sections")
	}
	if _, ok := prims[0].Attributes["COLOR_0"]; ok {
		t.Error("COLOR_0 written for a mesh without colors")
	}
}

func TestOBJ_Export(t *testing.T) {
	var out bytes.Buffer
	if _, err := Convert(bytes.NewReader(makeTestXAY(t)), "Crate.xay", &OBJ{}, &out, Options{}); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	var vertices, texcoords, normals, faces []string
	var usemtl []string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "v "):
			vertices = append(vertices, line)
		case strings.HasPrefix(line, "vt "):
			texcoords = append(texcoords, line)
		case strings.HasPrefix(line, "vn "):
			normals = append(normals, line)
		case strings.HasPrefix(line, "f "):
			faces = append(faces, line)
		case strings.HasPrefix(line, "usemtl "):
			usemtl = append(usemtl, strings.TrimPrefix(line, "usemtl "))
		}
	}

	if len(vertices) != 4 || len(texcoords) != 4 || len(normals) != 4 {
		t.Errorf("got %d v / %d vt / %d vn, want 4 each", len(vertices), len(texcoords), len(normals))
	}
	if len(faces) != 3 {
		t.Fatalf("got %d faces, want 3", len(faces))
	}
	if faces[0] != "f 1/1/1 2/2/2 3/3/3" {
		t.Errorf("first face = %q", faces[0])
	}

	// Slots per face are [1 0 0]: Lid, then Body.
	if strings.Join(usemtl, ",") != "Lid,Body" {
		t.Errorf("usemtl runs = %v, want [Lid Body]", usemtl)
	}

	// Vertex 1 is linear mid gray; OBJ stores it sRGB-encoded.
	gray := formats.LinearToSRGB(float32(128) / 255)
	wantColor := fmt.Sprintf("%f %f %f", gray, gray, gray)
	if !strings.HasSuffix(vertices[1], wantColor) {
		t.Errorf("second vertex = %q, want color %q", vertices[1], wantColor)
	}
}

func TestMaterialRuns(t *testing.T) {
	m := &formats.XAYMesh{FaceMaterials: []uint16{0, 0, 1, 1, 1, 0}}

	got := materialRuns(m)
	want := []materialRun{{0, 0, 2}, {1, 2, 5}, {0, 5, 6}}
	if len(got) != len(want) {
		t.Fatalf("got %d runs, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func decodeGLTF(t *testing.T, data []byte) *gltf.Document {
	t.Helper()
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		t.Fatalf("decoding glTF output: %v", err)
	}
	return doc
}

func checkGLTFDocument(t *testing.T, doc *gltf.Document) {
	t.Helper()

	if len(doc.Meshes) != 1 || len(doc.Nodes) != 1 {
		t.Fatalf("got %d meshes / %d nodes, want 1 / 1", len(doc.Meshes), len(doc.Nodes))
	}
	if doc.Meshes[0].Name != "Crate" {
		t.Errorf("mesh name = %q, want Crate", doc.Meshes[0].Name)
	}

	if len(doc.Materials) != 2 || doc.Materials[0].Name != "Body" || doc.Materials[1].Name != "Lid" {
		t.Errorf("materials not in section order")
	}

	prims := doc.Meshes[0].Primitives
	if len(prims) != 2 {
		t.Fatalf("got %d primitives, want one per slot in use (2)", len(prims))
	}

	wantIndexCounts := map[uint32]uint32{1: 3, 0: 6}
	for _, p := range prims {
		if p.Material == nil {
			t.Fatal("primitive without material")
		}
		if got := doc.Accessors[*p.Indices].Count; got != wantIndexCounts[*p.Material] {
			t.Errorf("slot %d: %d indices, want %d", *p.Material, got, wantIndexCounts[*p.Material])
		}
		for _, attr := range []string{"POSITION", "NORMAL", "TEXCOORD_0", "TEXCOORD_1", "COLOR_0"} {
			idx, ok := p.Attributes[attr]
			if !ok {
				t.Errorf("missing attribute %s", attr)
				continue
			}
			if got := doc.Accessors[idx].Count; got != 4 {
				t.Errorf("%s count = %d, want 4", attr, got)
			}
		}
	}
}

// testXAY is a four-vertex crate face with two material sections.
func testXAY() *formats.XAY {
	return &formats.XAY{
		Header: formats.XAYHeader{Version: 2},
		Sections: []formats.XAYSection{
			{Name: "Body", FirstFace: 0},
			{Name: "Lid", FirstFace: 1},
		},
		Vertices: []formats.XAYVertex{
			{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{0, 0}},
			{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{1, 0}},
			{Position: [3]float32{1, 1, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{1, 1}},
			{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{0, 1}},
		},
		Faces: [][3]uint32{{0, 1, 2}, {0, 2, 3}, {3, 2, 1}},
		ExtraUVs: [][][2]float32{
			{{0, 0}, {0.5, 0}, {0.5, 0.5}, {0, 0.5}},
		},
		Colors: [][4]float32{
			{1, 1, 1, 1},
			{128.0 / 255, 128.0 / 255, 128.0 / 255, 1},
			{0, 0, 0, 1},
			{1, 0, 0, 1},
		},
	}
}

func makeTestXAY(t *testing.T) []byte {
	t.Helper()
	data, err := testXAY().MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	return data
}
