// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package collada decodes the geometry library of Collada (.dae) files.
package collada

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Collada is the top-level Collada object
type Collada struct {
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// Geometry represents Collada's geometry
type Geometry struct {
	Mesh Mesh   `xml:"mesh"`
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Mesh contains all the primitive data
type Mesh struct {
	Source    []Source  `xml:"source"`
	Vertices  Vertices  `xml:"vertices"`
	Triangles Triangles `xml:"triangles"`
}

// FindSource returns the source referenced by ref, with or without the
// leading '#'. References to the vertices element resolve to its
// POSITION input.
func (m Mesh) FindSource(ref string) (Source, error) {
	id := strings.TrimPrefix(ref, "#")
	if id == m.Vertices.ID {
		for _, in := range m.Vertices.Inputs {
			if in.Semantic == "POSITION" {
				return m.FindSource(in.Source)
			}
		}
		return Source{}, fmt.Errorf("vertices %s: no POSITION input", id)
	}
	for _, s := range m.Source {
		if s.ID == id {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("source %s not found", id)
}

// Source links to other sources where data is present
type Source struct {
	ID     string `xml:"id,attr"`
	Floats Floats `xml:"float_array"`
}

// Vec3 returns the idx-th triple of the source.
func (s Source) Vec3(idx int) ([3]float32, error) {
	if idx < 0 || 3*idx+3 > len(s.Floats.Data) {
		return [3]float32{}, fmt.Errorf("source %s: index %d out of range", s.ID, idx)
	}
	d := s.Floats.Data[3*idx:]
	return [3]float32{d[0], d[1], d[2]}, nil
}

// Floats is the array of floats
type Floats struct {
	ID   string
	Data []float32
}

// UnmarshalXML unmarshals the array of floats
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			f.ID = attr.Value
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	for _, r := range strings.Fields(raw) {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return err
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// Vertices contains the list of vertices
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Triangles contain the list of triangles
type Triangles struct {
	Count    int     `xml:"count,attr"`
	Material string  `xml:"material,attr"`
	Inputs   []Input `xml:"input"`
	Index    []int
}

// Stride is the number of index elements per triangle corner.
func (t Triangles) Stride() int {
	var stride uint
	for _, in := range t.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	return int(stride)
}

// Input returns the input with semantic.
func (t Triangles) Input(semantic string) (Input, bool) {
	for _, in := range t.Inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return Input{}, false
}

// UnmarshalXML parses the index list
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return err
			}
			t.Count = num
		case "material":
			t.Material = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "input":
				var input Input
				if err := d.DecodeElement(&input, &el); err != nil {
					return err
				}
				t.Inputs = append(t.Inputs, input)
			case "p":
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					return err
				}
				fields := strings.Fields(raw)
				t.Index = make([]int, 0, len(fields))
				for _, r := range fields {
					num, err := strconv.Atoi(r)
					if err != nil {
						return err
					}
					t.Index = append(t.Index, num)
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el == start.End() {
				return nil
			}
		}
	}
}

// Input is Collada'a input type
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
}
