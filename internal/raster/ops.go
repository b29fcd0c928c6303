package raster

import "math"

// Upscale resizes the image by an integer factor using nearest-neighbor
// sampling. No smoothing is applied so hard edges survive for thresholding.
func Upscale(src *Image, factor int) (*Image, error) {
	if factor <= 1 {
		return src.Clone(), nil
	}
	out, err := New(src.Width*factor, src.Height*factor)
	if err != nil {
		return nil, err
	}
	for y := range out.Height {
		sy := y / factor
		for x := range out.Width {
			sx := x / factor
			si := src.at(sx, sy)
			di := out.at(x, y)
			copy(out.Pix[di:di+channels], src.Pix[si:si+channels])
		}
	}
	return out, nil
}

// Grayscale converts the image to grayscale using the Rec. 601 luma weights.
// The rounded luma is written into all three color channels; alpha is kept.
func Grayscale(src *Image) *Image {
	out := src.Clone()
	for i := 0; i < len(out.Pix); i += channels {
		r := float64(src.Pix[i])
		g := float64(src.Pix[i+1])
		b := float64(src.Pix[i+2])
		luma := uint8(math.Round(0.299*r + 0.587*g + 0.114*b))
		out.Pix[i] = luma
		out.Pix[i+1] = luma
		out.Pix[i+2] = luma
	}
	return out
}

// AdaptiveThreshold binarizes a grayscale image against a locally computed
// mean. For each pixel at least half the window size away from every border,
// the mean luma over the centered window is computed; the pixel becomes 255
// if its luma exceeds (mean - bias), else 0. Pixels within half a window of
// a border keep their grayscale value. Luma is read from the red channel,
// which carries the grayscale value after Grayscale.
func AdaptiveThreshold(src *Image, window int, bias float64) *Image {
	out := src.Clone()
	half := window / 2
	for y := half; y < src.Height-half; y++ {
		for x := half; x < src.Width-half; x++ {
			var sum int
			for wy := y - half; wy <= y+half; wy++ {
				for wx := x - half; wx <= x+half; wx++ {
					sum += int(src.Pix[src.at(wx, wy)])
				}
			}
			mean := float64(sum) / float64(window*window)
			v := uint8(0)
			if float64(src.Pix[src.at(x, y)]) > mean-bias {
				v = 255
			}
			i := out.at(x, y)
			out.Pix[i] = v
			out.Pix[i+1] = v
			out.Pix[i+2] = v
		}
	}
	return out
}

// Erode replaces each interior pixel with the minimum over its 3x3
// neighborhood. Pixels in the first or last row or column pass through.
func Erode(src *Image) *Image {
	return morph3x3(src, func(a, b uint8) bool { return a < b })
}

// Dilate replaces each interior pixel with the maximum over its 3x3
// neighborhood. Pixels in the first or last row or column pass through.
func Dilate(src *Image) *Image {
	return morph3x3(src, func(a, b uint8) bool { return a > b })
}

// morph3x3 applies a 3x3 min/max filter on the thresholded channel and
// writes the selected value into all three color channels.
func morph3x3(src *Image, better func(a, b uint8) bool) *Image {
	out := src.Clone()
	for y := 1; y < src.Height-1; y++ {
		for x := 1; x < src.Width-1; x++ {
			best := src.Pix[src.at(x-1, y-1)]
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := src.Pix[src.at(x+kx, y+ky)]
					if better(v, best) {
						best = v
					}
				}
			}
			i := out.at(x, y)
			out.Pix[i] = best
			out.Pix[i+1] = best
			out.Pix[i+2] = best
		}
	}
	return out
}

// Convolve3x3 applies a 3x3 convolution kernel to each color channel,
// clamping results to [0, 255]. Border pixels are left unmodified.
// The kernel is given in row-major order.
func Convolve3x3(src *Image, kernel [9]float64) *Image {
	out := src.Clone()
	for y := 1; y < src.Height-1; y++ {
		for x := 1; x < src.Width-1; x++ {
			for c := range 3 {
				var acc float64
				k := 0
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						acc += kernel[k] * float64(src.Pix[src.at(x+kx, y+ky)+c])
						k++
					}
				}
				out.Pix[out.at(x, y)+c] = clampUint8(acc)
			}
		}
	}
	return out
}

func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
