package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ksred/purchase-orders-api/internal/config"
	"github.com/ksred/purchase-orders-api/internal/types"
)

const (
	minOrders  = 10
	maxOrders  = 60
	numWorkers = 5
)

var (
	catalog    = []string{"Hex Bolt M8", "Lock Nut M8", "Flat Washer 8mm", "Cable Tie 200mm", "Copper Lug 16mm", "Conduit 20mm"}
	uoms       = []string{"ea", "box", "m"}
	orderTypes = []string{"hardware", "electrical", "office"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	mu         sync.Mutex
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration, failed bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.durations = append(rs.durations, d)
	rs.totalCalls++
	if failed {
		rs.failures++
	}
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient drives the purchase order API over HTTP
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
}

// newSimulationClient creates a client for baseURL and, when credentials are
// given, fetches a bearer token
func newSimulationClient(baseURL, apiKey, apiSecret string) (*simulationClient, error) {
	sc := &simulationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"auth":   {name: "Authentication"},
			"create": {name: "Create Order"},
			"upsert": {name: "Upsert Items"},
			"edit":   {name: "Edit Matches"},
			"export": {name: "Get Export"},
			"status": {name: "Update Status"},
		},
	}

	if apiKey != "" {
		token, err := sc.authenticate(apiKey, apiSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
		sc.authToken = token
	}

	return sc, nil
}

// do sends a request, records its latency under route and decodes a JSON
// body into out when out is non-nil
func (sc *simulationClient) do(route, method, path, contentType string, body io.Reader, out interface{}) ([]byte, error) {
	start := time.Now()
	failed := true
	defer func() {
		sc.stats[route].addDuration(time.Since(start), failed)
	}()

	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sc.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+sc.authToken)
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("route", route).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s failed with status %d: %s", route, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
		}
	}

	failed = false
	return respBody, nil
}

func (sc *simulationClient) authenticate(apiKey, apiSecret string) (string, error) {
	body, err := json.Marshal(map[string]string{"api_key": apiKey, "api_secret": apiSecret})
	if err != nil {
		return "", err
	}

	var result struct {
		Token string `json:"jwt_token"`
	}
	if _, err := sc.do("auth", http.MethodPost, "/api/auth/token", "application/json", bytes.NewReader(body), &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// createOrder uploads a fake request document and returns the new order
func (sc *simulationClient) createOrder(orderType string, document []byte) (*types.Order, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("request_file", "request.txt")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(document); err != nil {
		return nil, err
	}
	if err := mw.WriteField("type", orderType); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var order types.Order
	if _, err := sc.do("create", http.MethodPost, "/api/orders", mw.FormDataContentType(), &buf, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("no order ID in response")
	}
	return &order, nil
}

func (sc *simulationClient) upsertItems(orderID string, inputs []types.ItemInput) ([]types.OrderItem, error) {
	body, err := json.Marshal(inputs)
	if err != nil {
		return nil, err
	}

	var items []types.OrderItem
	_, err = sc.do("upsert", http.MethodPost, "/api/orders/"+orderID+"/items", "application/json", bytes.NewReader(body), &items)
	return items, err
}

func (sc *simulationClient) editItems(orderID string, edits []types.ItemEdit) ([]types.OrderItem, error) {
	body, err := json.Marshal(edits)
	if err != nil {
		return nil, err
	}

	var items []types.OrderItem
	_, err = sc.do("edit", http.MethodPatch, "/api/orders/"+orderID+"/items/matches", "application/json", bytes.NewReader(body), &items)
	return items, err
}

// exportRows fetches the order's CSV and returns its data rows
func (sc *simulationClient) exportRows(orderID string) ([][]string, error) {
	body, err := sc.do("export", http.MethodGet, "/api/orders/"+orderID+"/export", "", nil, nil)
	if err != nil {
		return nil, err
	}

	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("export has no header")
	}
	return rows[1:], nil
}

func (sc *simulationClient) updateStatus(orderID, status string) error {
	body := fmt.Sprintf(`{"status":%q}`, status)
	_, err := sc.do("status", http.MethodPatch, "/api/orders/"+orderID+"/status", "application/json", strings.NewReader(body), nil)
	return err
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	names := make([]string, 0, len(sc.stats))
	for k := range sc.stats {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		stats := sc.stats[k]
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// simulationStats aggregates outcomes across workers
type simulationStats struct {
	mu             sync.Mutex
	Orders         int
	Items          int
	Finalized      int
	Failed         int
	IDMismatches   int
	ExportMismatch int
	TotalValue     decimal.Decimal
	Types          map[string]int
}

func (s *simulationStats) record(f func(s *simulationStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

// randomItems builds a batch of distinct catalog lines with two-decimal prices
func randomItems(r *rand.Rand) []types.ItemInput {
	n := r.Intn(len(catalog)-1) + 2
	picked := r.Perm(len(catalog))[:n]

	inputs := make([]types.ItemInput, 0, n)
	for _, idx := range picked {
		qty := r.Intn(50) + 1
		price := decimal.New(int64(r.Intn(5000)+5), -2)
		unitPrice := types.NewAmount(price)
		amount := types.NewAmount(price.Mul(decimal.NewFromInt(int64(qty))))
		uom := uoms[r.Intn(len(uoms))]

		inputs = append(inputs, types.ItemInput{
			RequestItem:  catalog[idx],
			Quantity:     &qty,
			UOM:          &uom,
			PricePerUnit: &unitPrice,
			Amount:       &amount,
		})
	}
	return inputs
}

// runOrder walks one order through ingest, extraction, re-extraction,
// matching, export and finalization
func runOrder(sc *simulationClient, r *rand.Rand, stats *simulationStats) error {
	orderType := orderTypes[r.Intn(len(orderTypes))]
	order, err := sc.createOrder(orderType, []byte(fmt.Sprintf("request generated at %s", time.Now().Format(time.RFC3339Nano))))
	if err != nil {
		return err
	}

	inputs := randomItems(r)
	first, err := sc.upsertItems(order.ID, inputs)
	if err != nil {
		return err
	}

	// a second extraction pass must keep every item id
	for i := range inputs {
		qty := *inputs[i].Quantity + 1
		inputs[i].Quantity = &qty
	}
	second, err := sc.upsertItems(order.ID, inputs)
	if err != nil {
		return err
	}
	for i := range first {
		if first[i].ItemID != second[i].ItemID {
			stats.record(func(s *simulationStats) { s.IDMismatches++ })
			log.Warn().Str("order_id", order.ID).Str("request_item", first[i].RequestItem).Msg("Item ID changed on re-upsert")
		}
	}

	edits := make([]types.ItemEdit, 0, len(second))
	for _, item := range second {
		match := strings.ReplaceAll(item.RequestItem, " ", "-") + "-STD"
		edits = append(edits, types.ItemEdit{ItemID: item.ItemID, Match: &match})
	}
	if _, err := sc.editItems(order.ID, edits); err != nil {
		return err
	}

	rows, err := sc.exportRows(order.ID)
	if err != nil {
		return err
	}
	if len(rows) != len(second) {
		stats.record(func(s *simulationStats) { s.ExportMismatch++ })
		log.Warn().Str("order_id", order.ID).Int("rows", len(rows)).Int("items", len(second)).Msg("Export row count mismatch")
	}

	if err := sc.updateStatus(order.ID, types.OrderStatusFinalized); err != nil {
		return err
	}

	total := decimal.Zero
	for _, item := range second {
		if item.Amount != nil {
			total = total.Add(item.Amount.Decimal())
		}
	}

	stats.record(func(s *simulationStats) {
		s.Orders++
		s.Finalized++
		s.Items += len(second)
		s.TotalValue = s.TotalValue.Add(total)
		s.Types[orderType]++
	})

	log.Info().
		Str("order_id", order.ID).
		Str("type", orderType).
		Int("items", len(second)).
		Str("value", total.StringFixed(2)).
		Msg("Order finalized")

	return nil
}

// main runs concurrent workers against a running server
// SIM_BASE_URL selects the server; API_KEY and API_SECRET enable auth
func main() {
	baseURL := config.GetEnv("SIM_BASE_URL", "http://localhost:8080")
	simClient, err := newSimulationClient(baseURL, config.GetEnv("API_KEY", ""), config.GetEnv("API_SECRET", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize simulation client")
	}

	targetOrders := rand.Intn(maxOrders-minOrders) + minOrders
	log.Info().Int("target_orders", targetOrders).Str("base_url", baseURL).Msg("Starting simulation")

	stats := &simulationStats{Types: make(map[string]int)}
	start := time.Now()

	jobs := make(chan int, targetOrders)
	for i := 0; i < targetOrders; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			for range jobs {
				if err := runOrder(simClient, r, stats); err != nil {
					stats.record(func(s *simulationStats) { s.Failed++ })
					log.Error().Err(err).Int("worker_id", workerID).Msg("Order run failed")
				}
				time.Sleep(time.Duration(r.Intn(200)) * time.Millisecond)
			}
		}(w)
	}
	wg.Wait()

	duration := time.Since(start)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("PURCHASE ORDER SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Order Statistics
----------------
Target Orders:     %d
Finalized:         %d
Failed:            %d
Items:             %d
ID Mismatches:     %d
Export Mismatches: %d
Total Value:       %s
Duration:          %v

Type Distribution
-----------------
`, targetOrders, stats.Finalized, stats.Failed, stats.Items,
		stats.IDMismatches, stats.ExportMismatch, stats.TotalValue.StringFixed(2),
		duration.Round(time.Millisecond))

	for _, t := range orderTypes {
		count := stats.Types[t]
		barLength := 0
		if stats.Orders > 0 {
			barLength = int(float64(count) / float64(stats.Orders) * 20)
		}
		fmt.Printf("%-12s: %s (%d)\n", t, strings.Repeat("#", barLength), count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	simClient.printPerformanceStats()
}
