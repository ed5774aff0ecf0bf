package exchange

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"auction-backoffice/internal/logging"

	gocache "github.com/patrickmn/go-cache"
)

const (
	cacheKey      = "jpy_to_eur_rate"
	CacheDuration = 24 * time.Hour
)

// NewRateCache builds the process-wide TTL cache for exchange rates. A race
// between two tasks on a cold cache costs at most one redundant fetch.
func NewRateCache() *gocache.Cache {
	return gocache.New(CacheDuration, time.Hour)
}

// Conversion is the result of parsing a JPY price string and converting it
// to EUR.
type Conversion struct {
	OriginalJPY float64
	Rate        float64
	EURAmount   float64
	RoundedEUR  int
}

// Service converts scraped JPY prices to EUR using exchangerate-api.com,
// caching the rate for 24 hours.
type Service struct {
	apiKey  string
	baseURL string
	cache   *gocache.Cache
	client  *http.Client
}

func NewService(apiKey, baseURL string, cache *gocache.Cache) *Service {
	return &Service{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

var priceNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice extracts the numeric JPY amount from a formatted price string
// ("¥7,980,000" -> 7980000). Returns false when no number is present.
func ParsePrice(priceString string) (float64, bool) {
	cleaned := strings.NewReplacer("¥", "", " ", "", " ", "", ",", "").Replace(priceString)

	match := priceNumber.FindString(cleaned)
	if match == "" {
		return 0, false
	}

	var amount float64
	if _, err := fmt.Sscanf(match, "%f", &amount); err != nil {
		return 0, false
	}
	return amount, true
}

// RoundUpToHundreds rounds up to the nearest 100. Listed prices are
// conventionally round numbers.
func RoundUpToHundreds(amount float64) int {
	return int(math.Ceil(amount/100)) * 100
}

// Rate returns the cached JPY→EUR rate, fetching a fresh one on cache miss.
// Returns false when the rate service is unavailable; callers must treat that
// as non-fatal.
func (s *Service) Rate() (float64, bool) {
	if cached, found := s.cache.Get(cacheKey); found {
		if rate, ok := cached.(float64); ok {
			return rate, true
		}
	}

	rate, ok := s.fetchRate()
	if ok {
		s.cache.Set(cacheKey, rate, gocache.DefaultExpiration)
	}
	return rate, ok
}

type rateResponse struct {
	Result          string             `json:"result"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (s *Service) fetchRate() (float64, bool) {
	url := fmt.Sprintf("%s/%s/latest/JPY", s.baseURL, s.apiKey)

	resp, err := s.client.Get(url)
	if err != nil {
		logging.L().WithError(err).Error("Error fetching exchange rate")
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.L().WithField("status", resp.StatusCode).Warn("Exchange rate API error")
		return 0, false
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logging.L().WithError(err).Warn("Invalid exchange rate API response")
		return 0, false
	}

	rate, hasEUR := body.ConversionRates["EUR"]
	if body.Result != "success" || !hasEUR {
		logging.L().WithField("result", body.Result).Warn("Invalid exchange rate API response")
		return 0, false
	}

	return rate, true
}

// ConvertAndRound parses a formatted JPY price, converts it to EUR and rounds
// up to the nearest 100. Nil means the price could not be converted; the
// pipeline continues with a default price in that case.
func (s *Service) ConvertAndRound(priceString string) *Conversion {
	jpy, ok := ParsePrice(priceString)
	if !ok {
		return nil
	}

	rate, ok := s.Rate()
	if !ok {
		return nil
	}

	eur := jpy * rate
	return &Conversion{
		OriginalJPY: jpy,
		Rate:        rate,
		EURAmount:   eur,
		RoundedEUR:  RoundUpToHundreds(eur),
	}
}
