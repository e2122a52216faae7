package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// Radiance RGBE (.hdr) codec. Scanlines may be flat or new-style run-length
// encoded; only the standard -Y H +X W orientation is accepted.

var errRadianceFormat = errors.New("radiance: malformed file")

// maxRadianceSize bounds each image dimension read from a header.
const maxRadianceSize = 1 << 15

// DecodeRadiance reads a Radiance RGBE image into linear float radiance.
func DecodeRadiance(r io.Reader) (*EnvironmentImage, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	magic, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("radiance header: %w", err)
	}
	if !strings.HasPrefix(magic, "#?") {
		return nil, fmt.Errorf("%w: missing #? signature", errRadianceFormat)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("radiance header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if fmtName, ok := strings.CutPrefix(line, "FORMAT="); ok && fmtName != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("%w: unsupported format %q", errRadianceFormat, fmtName)
		}
	}

	resLine, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("radiance resolution: %w", err)
	}
	var width, height int
	if _, err := fmt.Sscanf(strings.TrimSpace(resLine), "-Y %d +X %d", &height, &width); err != nil {
		return nil, fmt.Errorf("%w: resolution %q", errRadianceFormat, strings.TrimSpace(resLine))
	}
	if width <= 0 || height <= 0 || width > maxRadianceSize || height > maxRadianceSize {
		return nil, fmt.Errorf("%w: size %dx%d", errRadianceFormat, width, height)
	}

	pixels := make([]float32, width*height*4)
	scan := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readScanline(br, scan, width); err != nil {
			return nil, fmt.Errorf("radiance scanline %d: %w", y, err)
		}
		row := pixels[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			rgbeToFloat(scan[x*4:x*4+4], row[x*4:x*4+4])
		}
	}
	return &EnvironmentImage{Width: width, Height: height, Pixels: pixels}, nil
}

func readScanline(br *bufio.Reader, scan []byte, width int) error {
	if _, err := io.ReadFull(br, scan[:4]); err != nil {
		return err
	}
	rle := width >= 8 && width < 0x8000 &&
		scan[0] == 2 && scan[1] == 2 && scan[2]&0x80 == 0
	if !rle {
		_, err := io.ReadFull(br, scan[4:])
		return err
	}
	if n := int(scan[2])<<8 | int(scan[3]); n != width {
		return fmt.Errorf("%w: scanline width %d, want %d", errRadianceFormat, n, width)
	}

	// Four planes (R, G, B, E), each run-length encoded separately.
	for c := 0; c < 4; c++ {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count) - 128
				if x+n > width {
					return fmt.Errorf("%w: run overflows scanline", errRadianceFormat)
				}
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				for ; n > 0; n-- {
					scan[x*4+c] = v
					x++
				}
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return fmt.Errorf("%w: bad literal run %d", errRadianceFormat, n)
			}
			for ; n > 0; n-- {
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				scan[x*4+c] = v
				x++
			}
		}
	}
	return nil
}

func rgbeToFloat(rgbe []byte, out []float32) {
	if rgbe[3] == 0 {
		out[0], out[1], out[2], out[3] = 0, 0, 0, 1
		return
	}
	f := float32(math.Ldexp(1, int(rgbe[3])-136))
	out[0] = float32(rgbe[0]) * f
	out[1] = float32(rgbe[1]) * f
	out[2] = float32(rgbe[2]) * f
	out[3] = 1
}

func floatToRGBE(r, g, b float32) [4]byte {
	v := max(r, g, b)
	if v < 1e-32 {
		return [4]byte{}
	}
	m, e := math.Frexp(float64(v))
	scale := float32(m * 256 / float64(v))
	return [4]byte{
		byte(max(r, 0) * scale),
		byte(max(g, 0) * scale),
		byte(max(b, 0) * scale),
		byte(e + 128),
	}
}

// EncodeRadiance writes img as a flat (uncompressed) Radiance file.
func EncodeRadiance(w io.Writer, img *EnvironmentImage) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", img.Height, img.Width)
	for i := 0; i < len(img.Pixels); i += 4 {
		rgbe := floatToRGBE(img.Pixels[i], img.Pixels[i+1], img.Pixels[i+2])
		if _, err := bw.Write(rgbe[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
