// JSON codec for the gateway's canonical dataset document. The document
// mirrors the Dataset struct: dims, coords, data_vars, attrs, with flat
// row-major data arrays. NaN is carried on the wire as JSON null.
package dataset

import (
	"encoding/json"
	"fmt"
	"math"
)

// jsonArray is the wire form of an Array. Data uses *float64 so missing
// values round-trip as null rather than NaN, which encoding/json rejects.
type jsonArray struct {
	Dims  []string          `json:"dims"`
	Shape []int             `json:"shape"`
	Data  []*float64        `json:"data"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// jsonDoc is the wire form of a Dataset.
type jsonDoc struct {
	Dims     map[string]int       `json:"dims"`
	Coords   map[string]jsonArray `json:"coords"`
	DataVars map[string]jsonArray `json:"data_vars"`
	Attrs    map[string]string    `json:"attrs,omitempty"`
}

// DecodeJSON parses a canonical dataset document.
func DecodeJSON(data []byte) (*Dataset, error) {
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding dataset document: %w", err)
	}

	ds := New()
	ds.Attrs = doc.Attrs
	for name, ja := range doc.Coords {
		a, err := fromJSONArray(name, ja)
		if err != nil {
			return nil, err
		}
		if err := ds.AddCoord(a); err != nil {
			return nil, err
		}
	}
	for name, ja := range doc.DataVars {
		a, err := fromJSONArray(name, ja)
		if err != nil {
			return nil, err
		}
		if err := ds.AddVar(a); err != nil {
			return nil, err
		}
	}
	// Dimensions declared in the document but carried by no array (rare, but
	// scalar-only documents do it) are preserved.
	for dim, n := range doc.Dims {
		if _, ok := ds.Dims[dim]; !ok {
			ds.Dims[dim] = n
		}
	}
	return ds, nil
}

// EncodeJSON serialises a Dataset into the canonical document form.
func EncodeJSON(ds *Dataset) ([]byte, error) {
	doc := jsonDoc{
		Dims:     ds.Dims,
		Coords:   make(map[string]jsonArray, len(ds.Coords)),
		DataVars: make(map[string]jsonArray, len(ds.Vars)),
		Attrs:    ds.Attrs,
	}
	for name, a := range ds.Coords {
		doc.Coords[name] = toJSONArray(a)
	}
	for name, a := range ds.Vars {
		doc.DataVars[name] = toJSONArray(a)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding dataset document: %w", err)
	}
	return b, nil
}

func fromJSONArray(name string, ja jsonArray) (*Array, error) {
	values := make([]float64, len(ja.Data))
	for i, p := range ja.Data {
		if p == nil {
			values[i] = math.NaN()
		} else {
			values[i] = *p
		}
	}
	a, err := NewArray(name, ja.Dims, ja.Shape, values)
	if err != nil {
		return nil, err
	}
	a.Attrs = ja.Attrs
	return a, nil
}

func toJSONArray(a *Array) jsonArray {
	data := make([]*float64, len(a.Values))
	for i, v := range a.Values {
		if math.IsNaN(v) {
			continue // null
		}
		v := v
		data[i] = &v
	}
	return jsonArray{Dims: a.Dims, Shape: a.Shape, Data: data, Attrs: a.Attrs}
}
