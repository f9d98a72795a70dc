package game

import "math/rand"

type GrainKind string

const (
	GrainRice  GrainKind = "rice"
	GrainPaddy GrainKind = "paddy"
)

const (
	fieldMinX  = 50
	fieldSpanX = 600
	fieldMinY  = 100
	fieldSpanY = 300

	manualMinPerKind = 25
	manualMaxPerKind = 50

	matchmadeMinTotal = 50
	matchmadeMaxTotal = 100
)

type Grain struct {
	ID   int
	Kind GrainKind
	X    int
	Y    int
}

// Layout is the immutable grain batch generated for one round.
type Layout struct {
	Grains []Grain
	Rice   int
	Paddy  int
}

func (l Layout) Total() int { return len(l.Grains) }

// ManualLayout generates 25-50 grains of each kind for host-created rooms.
func ManualLayout(rng *rand.Rand) Layout {
	rice := manualMinPerKind + rng.Intn(manualMaxPerKind-manualMinPerKind+1)
	paddy := manualMinPerKind + rng.Intn(manualMaxPerKind-manualMinPerKind+1)
	return buildLayout(rng, rice, paddy)
}

// MatchmadeLayout picks a total in 50-100 and splits it so the two kinds
// differ by at most one.
func MatchmadeLayout(rng *rand.Rand) Layout {
	total := matchmadeMinTotal + rng.Intn(matchmadeMaxTotal-matchmadeMinTotal+1)
	rice := total / 2
	paddy := total - rice
	if paddy != rice && rng.Intn(2) == 0 {
		rice, paddy = paddy, rice
	}
	return buildLayout(rng, rice, paddy)
}

func buildLayout(rng *rand.Rand, rice, paddy int) Layout {
	grains := make([]Grain, 0, rice+paddy)
	for i := 0; i < rice; i++ {
		grains = append(grains, randomGrain(rng, GrainRice))
	}
	for i := 0; i < paddy; i++ {
		grains = append(grains, randomGrain(rng, GrainPaddy))
	}
	rng.Shuffle(len(grains), func(i, j int) { grains[i], grains[j] = grains[j], grains[i] })
	for i := range grains {
		grains[i].ID = i
	}
	return Layout{Grains: grains, Rice: rice, Paddy: paddy}
}

func randomGrain(rng *rand.Rand, kind GrainKind) Grain {
	return Grain{
		Kind: kind,
		X:    fieldMinX + rng.Intn(fieldSpanX),
		Y:    fieldMinY + rng.Intn(fieldSpanY),
	}
}
