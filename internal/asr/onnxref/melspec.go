// Package onnxref is a reference ASR.Engine built directly on ONNX Runtime:
// a hand-rolled log-mel front end feeding an encoder/decoder pair, greedy
// decoded token-by-token (spec §4.3). It has no teacher precedent (glyphoxa
// reaches whisper.cpp's CGO binding instead, which computes its own mel
// internally); the tensor-session mechanics below are grounded on nupi's
// SileroEngine pattern, the mel math is implemented directly against
// math/math/cmplx since no pack dependency implements a Whisper-compatible
// STFT.
package onnxref

import (
	"math"
	"math/cmplx"
)

const (
	fftSize      = 400
	hopLength    = 160
	melChannels  = 80
	targetFrames = 3000
)

// hannWindow returns a length-n Hann window.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// melFilterbank returns a [melChannels][fftSize/2+1] triangular mel filter
// matrix over the 0..sampleRate/2 Hz range.
func melFilterbank(sampleRate int) [][]float64 {
	nBins := fftSize/2 + 1
	toMel := func(f float64) float64 { return 2595 * math.Log10(1+f/700) }
	fromMel := func(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

	minMel := toMel(0)
	maxMel := toMel(float64(sampleRate) / 2)

	points := make([]float64, melChannels+2)
	for i := range points {
		m := minMel + (maxMel-minMel)*float64(i)/float64(melChannels+1)
		points[i] = fromMel(m)
	}
	binFreqs := make([]int, melChannels+2)
	for i, f := range points {
		binFreqs[i] = int(math.Floor((float64(fftSize)+1) * f / float64(sampleRate)))
	}

	fb := make([][]float64, melChannels)
	for m := 0; m < melChannels; m++ {
		fb[m] = make([]float64, nBins)
		left, center, right := binFreqs[m], binFreqs[m+1], binFreqs[m+2]
		for k := left; k < center; k++ {
			if k >= 0 && k < nBins && center != left {
				fb[m][k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k < right; k++ {
			if k >= 0 && k < nBins && right != center {
				fb[m][k] = float64(right-k) / float64(right-center)
			}
		}
	}
	return fb
}

// ComputeLogMel computes an 80-channel log-mel spectrogram from samples
// (spec §4.3 step 1), then pads or trims to exactly targetFrames (step 2).
// The returned slice is [melChannels][targetFrames].
func ComputeLogMel(samples []float32, sampleRate int) [][]float32 {
	window := hannWindow(fftSize)
	fb := melFilterbank(sampleRate)

	nFrames := 0
	if len(samples) >= fftSize {
		nFrames = (len(samples)-fftSize)/hopLength + 1
	}

	nBins := fftSize/2 + 1
	mel := make([][]float64, melChannels)
	for i := range mel {
		mel[i] = make([]float64, nFrames)
	}

	frame := make([]complex128, fftSize)
	for f := 0; f < nFrames; f++ {
		start := f * hopLength
		for i := 0; i < fftSize; i++ {
			frame[i] = complex(float64(samples[start+i])*window[i], 0)
		}
		spectrum := dft(frame)
		power := make([]float64, nBins)
		for k := 0; k < nBins; k++ {
			power[k] = cmplx.Abs(spectrum[k]) * cmplx.Abs(spectrum[k])
		}
		for m := 0; m < melChannels; m++ {
			var sum float64
			for k := 0; k < nBins; k++ {
				sum += fb[m][k] * power[k]
			}
			if sum < 1e-10 {
				sum = 1e-10
			}
			mel[m][f] = math.Log10(sum)
		}
	}

	maxVal := math.Inf(-1)
	for _, row := range mel {
		for _, v := range row {
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if math.IsInf(maxVal, -1) {
		maxVal = 0
	}
	floor := maxVal - 8

	out := make([][]float32, melChannels)
	for m := 0; m < melChannels; m++ {
		out[m] = make([]float32, targetFrames)
		for f := 0; f < targetFrames; f++ {
			if f >= nFrames {
				// zero-padding in log-mel space corresponds to the clamped
				// floor value after normalization below.
				out[m][f] = float32((floor + 4) / 4)
				continue
			}
			v := mel[m][f]
			if v < floor {
				v = floor
			}
			out[m][f] = float32((v + 4) / 4)
		}
	}
	return out
}

// dft computes the discrete Fourier transform directly. fftSize is fixed and
// small (400 points computed once per 10ms hop), so an O(n^2) transform is
// fine here and keeps this file dependency-free.
func dft(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n/2+1)
	for k := range out {
		var sum complex128
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += x[t] * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}
