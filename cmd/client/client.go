// Command client is a minimal CLI for exercising the gateway's binary
// protocol: it places or cancels orders for one agent and prints reports
// read back asynchronously from the connection.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"hftcore/internal/common"
	"hftcore/internal/gateway"
)

// reportHeaderLen matches gateway's unexported reportFixedLen; duplicated
// here since the client does not import gateway's internals.
const reportHeaderLen = 1 + 1 + 8 + 8 + 1 + 1 + 2 + 1

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the exchange gateway")
	agentID := flag.String("agent", "", "agent id to submit orders as (required)")
	action := flag.String("action", "place", "action to perform: 'place' or 'cancel'")

	symbol := flag.String("symbol", "AAPL", "symbol to trade")
	sideStr := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "order type: 'limit' or 'market'")
	price := flag.Float64("price", 100.0, "limit price (ignored for market orders)")
	qtyStr := flag.String("qty", "10", "quantity, or a comma-separated list (e.g. 10,20,50)")

	orderID := flag.String("order-id", "", "order id to cancel (required for -action=cancel)")

	flag.Parse()

	if *agentID == "" {
		fmt.Println("Error: -agent is required.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s as '%s'\n", *serverAddr, *agentID)

	go readReports(conn)

	side := common.Buy
	if strings.ToLower(*sideStr) == "sell" {
		side = common.Sell
	}
	orderType := common.Limit
	if strings.ToLower(*typeStr) == "market" {
		orderType = common.Market
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, qty := range parseQuantities(*qtyStr) {
			wire := gateway.EncodeNewOrder(side, orderType, *symbol, qty, *price, *agentID, 0)
			if _, err := conn.Write(wire); err != nil {
				log.Printf("failed to place order (qty %d): %v", qty, err)
				continue
			}
			fmt.Printf("-> sent %s %s order: %s %d @ %.2f\n", strings.ToUpper(*sideStr), strings.ToUpper(*typeStr), *symbol, qty, *price)
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -order-id is required for -action=cancel")
		}
		wire := gateway.EncodeCancelOrder(*agentID, *orderID)
		if _, err := conn.Write(wire); err != nil {
			log.Printf("failed to send cancel: %v", err)
		} else {
			fmt.Printf("-> sent cancel for order %s\n", *orderID)
		}

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("\nlistening for reports... (press Ctrl+C to exit)")
	select {}
}

func parseQuantities(input string) []uint64 {
	var result []uint64
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		qty, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			log.Printf("warning: invalid quantity %q, skipping", p)
			continue
		}
		result = append(result, qty)
	}
	return result
}

// readReports continuously reads and prints Report messages from conn.
func readReports(conn net.Conn) {
	for {
		header := make([]byte, reportHeaderLen)
		if _, err := io.ReadFull(conn, header); err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}

		trailerLen := gateway.VariableTrailerLen(header)
		trailer := make([]byte, trailerLen)
		if trailerLen > 0 {
			if _, err := io.ReadFull(conn, trailer); err != nil {
				log.Printf("error reading report body: %v", err)
				return
			}
		}

		report, err := gateway.DecodeReport(header, trailer)
		if err != nil {
			log.Printf("error decoding report: %v", err)
			continue
		}

		printReport(report)
	}
}

func printReport(r gateway.Report) {
	switch r.Type {
	case gateway.AckReport:
		fmt.Printf("\n[ACK] order id: %s\n", r.OrderID)
	case gateway.ErrorReport:
		fmt.Printf("\n[ERROR] %s\n", r.Err)
	case gateway.ExecutionReport:
		sideStr := "BUY"
		if r.Side == common.Sell {
			sideStr = "SELL"
		}
		fmt.Printf("\n[EXECUTION] %s %s | qty: %d | price: %.2f | vs: %s\n",
			sideStr, r.Symbol, r.Quantity, r.Price, r.Counterparty)
	}
}
