package orders

import (
	"math/rand"
	"sync"
)

// Generator produces order texts for the simulator.
type Generator interface {
	GenerateRandomOrder() string
}

// staticOrders is the fixed menu of simulated orders.
var staticOrders = []string{
	"1 cheeseburger with fries and a chocolate milkshake",
	"2 bacon cheeseburgers, 2 orders of fries, and 2 chocolate milkshakes",
	"2 bacon cheeseburgers, 1 order of regular fries without salt, 1 order of sweet potato fries, and 2 strawberry milkshakes",
	"2 vanilla milkshakes and 1 order of onion rings",
	"1 sundae with whipped cream and a cherry on top",
	"1 bacon cheeseburger with extra cheese, 1 order of fries, and 1 vanilla milkshake with sprinkles",
	"2 cheeseburgers, 1 order of sweet potato fries, and 2 chocolate milkshakes with whipped cream",
	"1 cheeseburger with bacon, 1 order of fries without salt, and 1 strawberry milkshake with a cherry on top",
	"2 bacon cheeseburgers and 5 chocolate milkshakes",
	"2 cheeseburgers with extra cheese, 2 with bacon, 2 orders of sweet potato fries, 1 with no salt",
	"3 hot fudge sundaes",
	"3 hot fudge sundaes with peanuts and whipped cream",
}

// StaticGenerator picks a random order from a fixed list. It is safe for
// concurrent use; overlapping simulator jobs draw from one shared generator.
type StaticGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStaticGenerator creates a generator seeded with the given source.
func NewStaticGenerator(seed int64) *StaticGenerator {
	return &StaticGenerator{rng: rand.New(rand.NewSource(seed))}
}

// GenerateRandomOrder implements Generator.
func (g *StaticGenerator) GenerateRandomOrder() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return staticOrders[g.rng.Intn(len(staticOrders))]
}
