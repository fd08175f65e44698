package dataset

import (
	"math"
	"math/rand"
)

// Feature columns of the media dataset.
const (
	FeatDuration = iota // minutes
	FeatFormat          // resolution code
	FeatBitrate         // Mbps
	FeatSize            // MB, duration*60*bitrate/8
	MediaFeatures
)

// Classes of the media dataset.
const (
	ClassMusic = iota
	ClassSeries
	ClassMovie
	MediaClasses
)

// resolution codes 240p, 360p, 480p, 720p, 1080p, 1440p, 2160p and their
// empirical draw probabilities
var formatProbs = []float64{0.05, 0.10, 0.15, 0.3, 0.3, 0.07, 0.03}

// lognormal (mu, sigma) of duration in minutes per class
var durationParams = [MediaClasses][2]float64{
	ClassMusic:  {1.204, 0.261},
	ClassSeries: {3.55, 0.538},
	ClassMovie:  {4.526, 0.414},
}

// lognormal (mu, sigma) of bitrate in Mbps per class and resolution code
var bitrateParams = [MediaClasses][7][2]float64{
	ClassMusic: {
		{-0.92, 0.11}, // 240p  -> ~0.4 Mbps
		{-0.72, 0.13}, // 360p  -> ~0.49 Mbps
		{-0.52, 0.14}, // 480p  -> ~0.58 Mbps
		{-0.12, 0.16}, // 720p  -> ~0.91 Mbps
		{0.85, 0.21},  // 1080p -> ~2.36 Mbps
		{1.39, 0.22},  // 1440p -> ~4.1 Mbps
		{2.39, 0.29},  // 2160p -> ~10.9 Mbps
	},
	ClassSeries: {
		{-1.1, 0.16},  // 240p  -> ~0.33 Mbps
		{-0.95, 0.18}, // 360p  -> ~0.39 Mbps
		{-0.79, 0.2},  // 480p  -> ~0.45 Mbps
		{-0.2, 0.21},  // 720p  -> ~0.82 Mbps
		{0.4, 0.25},   // 1080p -> ~1.5 Mbps
		{0.81, 0.23},  // 1440p -> ~2.2 Mbps
		{1.39, 0.3},   // 2160p -> ~4 Mbps
	},
	ClassMovie: {
		{-1.2, 0.25}, // 240p  -> ~0.3 Mbps
		{-0.9, 0.28}, // 360p  -> ~0.41 Mbps
		{-0.6, 0.31}, // 480p  -> ~0.55 Mbps
		{0.0, 0.29},  // 720p  -> ~1 Mbps
		{0.6, 0.3},   // 1080p -> ~1.8 Mbps
		{0.96, 0.36}, // 1440p -> ~2.7 Mbps
		{1.61, 0.4},  // 2160p -> ~5 Mbps
	},
}

// GenerateMedia synthesizes a labeled 3-class media dataset of n samples,
// one third per class in class order, as a feature-major float32 tensor.
// Deterministic for a fixed seed.
func GenerateMedia(n int, seed uint64) (X []float32, y []int32) {
	rng := rand.New(rand.NewSource(int64(seed)))

	X = make([]float32, n*MediaFeatures)
	y = make([]int32, n)

	classSize := n / MediaClasses
	for class := 0; class < MediaClasses; class++ {
		start := class * classSize
		end := start + classSize
		if class == MediaClasses-1 {
			end = n
		}

		for i := start; i < end; i++ {
			code := drawFormat(rng)
			duration := lognormal(rng, durationParams[class][0], durationParams[class][1])
			bitrate := lognormal(rng, bitrateParams[class][code][0], bitrateParams[class][code][1])

			X[FeatDuration*n+i] = duration
			X[FeatFormat*n+i] = float32(code)
			X[FeatBitrate*n+i] = bitrate
			X[FeatSize*n+i] = duration * 60 * bitrate / 8
			y[i] = int32(class)
		}
	}

	return X, y
}

func drawFormat(rng *rand.Rand) int {
	u := rng.Float64()
	acc := 0.0
	for code, p := range formatProbs {
		acc += p
		if u < acc {
			return code
		}
	}
	return len(formatProbs) - 1
}

func lognormal(rng *rand.Rand, mu, sigma float64) float32 {
	return float32(math.Exp(mu + sigma*rng.NormFloat64()))
}
