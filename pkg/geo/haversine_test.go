package geo

import (
	"math"
	"testing"
)

func TestDistanceKmSymmetric(t *testing.T) {
	pairs := [][2]Point{
		{{28.6139, 77.2090}, {28.5355, 77.3910}},
		{{19.0760, 72.8777}, {12.9716, 77.5946}},
		{{-33.8688, 151.2093}, {51.5074, -0.1278}},
		{{0, 179.9}, {0, -179.9}},
	}
	for _, pair := range pairs {
		ab := DistanceKm(pair[0], pair[1])
		ba := DistanceKm(pair[1], pair[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("distance not symmetric for %v: %f vs %f", pair, ab, ba)
		}
	}
}

func TestDistanceKmToSelfIsZero(t *testing.T) {
	for _, p := range []Point{{28.6139, 77.2090}, {-90, 0}, {45, -180}} {
		if d := DistanceKm(p, p); math.Abs(d) > 1e-9 {
			t.Fatalf("expected zero distance for %v, got %f", p, d)
		}
	}
}

func TestDistanceKmDelhiToNoida(t *testing.T) {
	vendor := Point{Latitude: 28.6139, Longitude: 77.2090}
	user := Point{Latitude: 28.5355, Longitude: 77.3910}

	lat1 := vendor.Latitude * math.Pi / 180
	lat2 := user.Latitude * math.Pi / 180
	dLat := (user.Latitude - vendor.Latitude) * math.Pi / 180
	dLon := (user.Longitude - vendor.Longitude) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	want := 6371 * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	got := DistanceKm(vendor, user)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %f, got %f", want, got)
	}
	if rounded := RoundKm(got); math.Abs(rounded-want) > 0.05+1e-9 {
		t.Fatalf("rounded distance %f drifted from %f", rounded, want)
	}
	if got < 19 || got > 20 {
		t.Fatalf("expected roughly 19.8 km between the two points, got %f", got)
	}
}

func TestPointValid(t *testing.T) {
	cases := []struct {
		p    Point
		want bool
	}{
		{Point{0, 0}, true},
		{Point{90, 180}, true},
		{Point{-90.1, 0}, false},
		{Point{0, 180.5}, false},
		{Point{math.NaN(), 0}, false},
	}
	for _, tc := range cases {
		if got := tc.p.Valid(); got != tc.want {
			t.Fatalf("Valid(%v) = %v want %v", tc.p, got, tc.want)
		}
	}
}

func TestRoundKm(t *testing.T) {
	if got := RoundKm(13.149); got != 13.1 {
		t.Fatalf("expected 13.1, got %v", got)
	}
	if got := RoundKm(2.25); got != 2.3 {
		t.Fatalf("expected 2.3, got %v", got)
	}
}
