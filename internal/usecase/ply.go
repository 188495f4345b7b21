package usecase

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"splat-service/internal/domain"
)

// plyProperties is the declared per-vertex property order: position,
// scalar-first rotation quaternion, scale, color, opacity. Conforming 3DGS
// viewers read the same layout.
var plyProperties = []string{
	"x", "y", "z",
	"rot_0", "rot_1", "rot_2", "rot_3",
	"scale_0", "scale_1", "scale_2",
	"f_dc_0", "f_dc_1", "f_dc_2",
	"opacity",
}

const plyRecordSize = 14 * 4 // 14 float32 properties

// EncodePLY serializes a GaussianSet as a binary little-endian PLY file.
// Deterministic: the same set always encodes to the same bytes.
func EncodePLY(set *domain.GaussianSet) ([]byte, error) {
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("encode ply: %w", err)
	}

	n := set.Len()

	var buf bytes.Buffer
	buf.Grow(256 + n*plyRecordSize)

	buf.WriteString("ply\n")
	buf.WriteString("format binary_little_endian 1.0\n")
	fmt.Fprintf(&buf, "element vertex %d\n", n)
	for _, p := range plyProperties {
		fmt.Fprintf(&buf, "property float %s\n", p)
	}
	buf.WriteString("end_header\n")

	record := make([]byte, plyRecordSize)
	for i := 0; i < n; i++ {
		fields := [14]float32{
			set.Positions[i][0], set.Positions[i][1], set.Positions[i][2],
			set.Rotations[i][0], set.Rotations[i][1], set.Rotations[i][2], set.Rotations[i][3],
			set.Scales[i][0], set.Scales[i][1], set.Scales[i][2],
			set.Colors[i][0], set.Colors[i][1], set.Colors[i][2],
			set.Opacities[i],
		}
		for j, f := range fields {
			binary.LittleEndian.PutUint32(record[j*4:], math.Float32bits(f))
		}
		buf.Write(record)
	}

	return buf.Bytes(), nil
}

// DecodePLY reads bytes produced by EncodePLY back into a GaussianSet. Used
// for round-trip verification; rejects headers that do not declare exactly
// the expected property layout.
func DecodePLY(data []byte) (*domain.GaussianSet, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	line, err := readHeaderLine(r)
	if err != nil || line != "ply" {
		return nil, fmt.Errorf("decode ply: missing magic")
	}
	line, err = readHeaderLine(r)
	if err != nil || line != "format binary_little_endian 1.0" {
		return nil, fmt.Errorf("decode ply: unsupported format %q", line)
	}

	n := -1
	props := []string{}
	for {
		line, err = readHeaderLine(r)
		if err != nil {
			return nil, fmt.Errorf("decode ply: truncated header")
		}
		switch {
		case line == "end_header":
		case strings.HasPrefix(line, "element vertex "):
			n, err = strconv.Atoi(strings.TrimPrefix(line, "element vertex "))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("decode ply: bad vertex count %q", line)
			}
			continue
		case strings.HasPrefix(line, "property float "):
			props = append(props, strings.TrimPrefix(line, "property float "))
			continue
		case strings.HasPrefix(line, "comment "):
			continue
		default:
			return nil, fmt.Errorf("decode ply: unexpected header line %q", line)
		}
		break
	}

	if n < 0 {
		return nil, fmt.Errorf("decode ply: no vertex element declared")
	}
	if len(props) != len(plyProperties) {
		return nil, fmt.Errorf("decode ply: %d properties declared, want %d", len(props), len(plyProperties))
	}
	for i, p := range props {
		if p != plyProperties[i] {
			return nil, fmt.Errorf("decode ply: property %d is %q, want %q", i, p, plyProperties[i])
		}
	}

	set := &domain.GaussianSet{
		Positions: make([][3]float32, n),
		Rotations: make([][4]float32, n),
		Scales:    make([][3]float32, n),
		Colors:    make([][3]float32, n),
		Opacities: make([]float32, n),
	}

	record := make([]byte, plyRecordSize)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, record); err != nil {
			return nil, fmt.Errorf("decode ply: truncated body at vertex %d", i)
		}
		f := func(j int) float32 {
			return math.Float32frombits(binary.LittleEndian.Uint32(record[j*4:]))
		}
		set.Positions[i] = [3]float32{f(0), f(1), f(2)}
		set.Rotations[i] = [4]float32{f(3), f(4), f(5), f(6)}
		set.Scales[i] = [3]float32{f(7), f(8), f(9)}
		set.Colors[i] = [3]float32{f(10), f(11), f(12)}
		set.Opacities[i] = f(13)
	}

	return set, nil
}

func readHeaderLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\n"), nil
}
