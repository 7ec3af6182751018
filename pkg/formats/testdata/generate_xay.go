//go:build ignore

// This program generates a test XAY file for unit tests.
// Run with: go run generate_xay.go
package main

import (
	"log"
	"os"

	"github.com/Faultbox/xaytool/pkg/formats"
)

func main() {
	// A 2x2 quad split into two triangles, one per material section,
	// with one extra UV channel and vertex colors.
	x := &formats.XAY{
		Header: formats.XAYHeader{Version: 1},
		Sections: []formats.XAYSection{
			{Name: "M_Quad_Base", FirstFace: 0},
			{Name: "M_Quad_Trim", FirstFace: 1},
		},
		Vertices: []formats.XAYVertex{
			{Position: [3]float32{-1, 0, -1}, Normal: [3]float32{0, 1, 0}, UV: [2]float32{0, 0}},
			{Position: [3]float32{1, 0, -1}, Normal: [3]float32{0, 1, 0}, UV: [2]float32{1, 0}},
			{Position: [3]float32{1, 0, 1}, Normal: [3]float32{0, 1, 0}, UV: [2]float32{1, 1}},
			{Position: [3]float32{-1, 0, 1}, Normal: [3]float32{0, 1, 0}, UV: [2]float32{0, 1}},
		},
		Faces: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
		ExtraUVs: [][][2]float32{
			{{0, 0}, {0.5, 0}, {0.5, 0.5}, {0, 0.5}},
		},
		Colors: [][4]float32{
			{1, 1, 1, 1},
			{1, 0, 0, 1},
			{0, 1, 0, 1},
			{0, 0, 1, 1},
		},
	}

	data, err := x.MarshalBinary()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile("quad.xay", data, 0644); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote quad.xay (%d bytes)", len(data))
}
