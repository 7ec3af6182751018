package export

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/xaytool/pkg/formats"
)

// GLTF exports glTF 2.0, as JSON with an embedded buffer or as GLB.
// Colors are written as linear float COLOR_0, which is what glTF requires.
type GLTF struct {
	Binary bool
}

func (e *GLTF) Name() string {
	if e.Binary {
		return "glb"
	}
	return "gltf"
}

func (e *GLTF) Extension() string {
	if e.Binary {
		return ".glb"
	}
	return ".gltf"
}

func (e *GLTF) ColorEncoding() formats.ColorEncoding {
	return formats.ColorLinear
}

func (e *GLTF) Export(w io.Writer, m *formats.XAYMesh) error {
	doc, err := BuildGLTF(m)
	if err != nil {
		return err
	}

	if !e.Binary {
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = e.Binary
	return errors.Wrap(encoder.Encode(doc), "encoding glTF")
}

// BuildGLTF creates a document with one node and one mesh. Vertex attributes
// are shared; each material slot in use gets its own primitive. A mesh with
// vertices but no faces becomes a single point primitive, and a mesh without
// vertices becomes a node with no mesh attached.
func BuildGLTF(m *formats.XAYMesh) (*gltf.Document, error) {
	doc := gltf.NewDocument()

	if len(m.Positions) == 0 {
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
		return doc, nil
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(doc, m.Positions),
		"NORMAL":   modeler.WriteNormal(doc, m.Normals),
	}
	for iLayer, uvs := range m.UVs {
		attributes[fmt.Sprintf("TEXCOORD_%d", iLayer)] = modeler.WriteTextureCoord(doc, uvs)
	}
	if m.HasColors() {
		attributes["COLOR_0"] = modeler.WriteColor(doc, m.Colors)
	}

	for _, name := range m.Materials {
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name:        name,
			DoubleSided: true,
		})
	}

	// Collect indices per slot, keeping face order inside each slot.
	slotOrder := make([]uint16, 0)
	slotIndices := make(map[uint16][]uint32)
	for iFace, face := range m.Faces {
		slot := m.FaceMaterials[iFace]
		if _, ok := slotIndices[slot]; !ok {
			slotOrder = append(slotOrder, slot)
		}
		slotIndices[slot] = append(slotIndices[slot], face[0], face[1], face[2])
	}

	gltfMesh := &gltf.Mesh{Name: m.Name}
	if len(m.Faces) == 0 {
		gltfMesh.Primitives = append(gltfMesh.Primitives, &gltf.Primitive{
			Mode:       gltf.PrimitivePoints,
			Attributes: attributes,
		})
	}
	for _, slot := range slotOrder {
		primitive := &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, slotIndices[slot])),
			Attributes: attributes,
		}
		if int(slot) < len(doc.Materials) {
			primitive.Material = gltf.Index(uint32(slot))
		}
		gltfMesh.Primitives = append(gltfMesh.Primitives, primitive)
	}

	doc.Meshes = append(doc.Meshes, gltfMesh)
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: m.Name,
		Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))

	return doc, nil
}
