// Command benchmark drives the matching engine in-process (no gateway) to
// measure order-submission and drain throughput across a set of
// synthetic agents and randomly generated orders.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"hftcore/internal/common"
	"hftcore/internal/engine"
	"hftcore/internal/latency"
)

var basePrices = map[string]float64{
	"AAPL":  150,
	"MSFT":  250,
	"GOOGL": 2500,
	"TSLA":  800,
	"AMZN":  3000,
}

func main() {
	agentCount := flag.Int("agents", 10, "number of simulated agents")
	orderCounts := flag.String("order-counts", "1000,10000,100000", "comma-separated order counts to benchmark")
	seed := flag.Int64("seed", 7, "RNG seed for order generation")
	flag.Parse()

	for _, count := range parseCounts(*orderCounts) {
		runThroughputBenchmark(count, *agentCount, *seed)
	}
}

func parseCounts(s string) []int {
	var counts []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			continue
		}
		counts = append(counts, n)
	}
	return counts
}

func runThroughputBenchmark(orderCount, agentCount int, seed int64) {
	symbols := []string{"AAPL", "MSFT", "GOOGL", "TSLA", "AMZN"}
	eng := engine.New(engine.Config{Symbols: symbols, Seed: seed})

	rng := rand.New(rand.NewSource(seed))
	agents := make([]string, agentCount)
	for i := range agents {
		agents[i] = fmt.Sprintf("agent_%d", i)
		eng.RegisterAgent(agents[i], latency.Profile{
			Base:           time.Duration(500+rng.Intn(4500)) * time.Microsecond,
			Jitter:         time.Duration(100+rng.Intn(900)) * time.Microsecond,
			PacketLossRate: rng.Float64() * 0.001,
		})
	}

	orders := generateRandomOrders(rng, orderCount, symbols, agents)

	start := time.Now()
	for _, order := range orders {
		eng.Submit(order)
	}
	submissionTime := time.Since(start)

	// Drain until a pass produces no trades. The grace period covers every
	// agent's base latency plus jitter (at most 6ms); an order whose sample
	// hit the 10x retransmit path may still be queued and is not counted.
	time.Sleep(10 * time.Millisecond)
	drainStart := time.Now()
	var trades []common.Trade
	for {
		batch := eng.Drain()
		if len(batch) == 0 {
			break
		}
		trades = append(trades, batch...)
	}
	processingTime := time.Since(drainStart)

	totalTime := submissionTime + processingTime
	throughput := float64(orderCount) / totalTime.Seconds()

	stats := eng.Statistics()
	fmt.Printf(
		"%d orders, %d agents: %.0f orders/sec (submit=%s, drain=%s), %d trades, %d processed, %d latency violations\n",
		orderCount, agentCount, throughput, submissionTime, processingTime,
		len(trades), stats.OrdersProcessed, stats.LatencyViolations,
	)
}

func generateRandomOrders(rng *rand.Rand, count int, symbols, agents []string) []*common.Order {
	orders := make([]*common.Order, 0, count)
	for i := 0; i < count; i++ {
		symbol := symbols[rng.Intn(len(symbols))]
		agent := agents[rng.Intn(len(agents))]
		side := common.Buy
		if rng.Intn(2) == 1 {
			side = common.Sell
		}
		quantity := uint64(10 + rng.Intn(991))

		var order *common.Order
		var err error
		if rng.Intn(2) == 0 {
			basePrice := basePrices[symbol]
			if basePrice == 0 {
				basePrice = 100
			}
			price := basePrice * (0.95 + rng.Float64()*0.10)
			order, err = common.NewLimitOrder(agent, symbol, side, quantity, price)
		} else {
			order, err = common.NewMarketOrder(agent, symbol, side, quantity)
		}
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders
}
