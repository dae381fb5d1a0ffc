package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatisticsFile is the name of the request statistics file inside the data
// directory.
const StatisticsFile = "requests.json"

const (
	visitorWindow = 24 * time.Hour
	pruneInterval = time.Minute
	// PopularLimit is how many target URLs the full view reports.
	PopularLimit = 5
)

// Statistics collects per-request counters for the API.
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"` // IP -> last visit
	AnalysisRequests int                  `json:"analysisRequests"`
	ErrorCount       int                  `json:"errorCount"`
	PopularURLs      map[string]int       `json:"popularUrls"`
	TotalLoadTime    float64              `json:"totalLoadTime"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	mutex    sync.RWMutex
	saveMu   sync.Mutex
	filePath  string
	logger    *zap.Logger
	now       func() time.Time
	lastPrune time.Time
}

// URLCount is one entry of the popular URL ranking.
type URLCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Snapshot is the public view of Statistics. PopularURLs is only filled in
// development mode.
type Snapshot struct {
	UniqueVisitors24h int        `json:"uniqueVisitors24h"`
	TotalRequests     int        `json:"totalRequests"`
	ErrorRate         float64    `json:"errorRate"`
	AverageLoadTime   float64    `json:"averageLoadTime"`
	PopularURLs       []URLCount `json:"popularUrls,omitempty"`
}

// NewStatistics creates statistics persisted under dataDir, loading any
// previously saved state. An empty dataDir keeps everything in memory.
func NewStatistics(dataDir string, logger *zap.Logger) (*Statistics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		PopularURLs:    make(map[string]int),
		logger:         logger,
		now:            time.Now,
	}
	if dataDir == "" {
		return s, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	s.filePath = filepath.Join(dataDir, StatisticsFile)

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// TrackVisitor records a visit from ip.
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	s.UniqueVisitors[ip] = now
	s.pruneVisitors(now)
}

// pruneVisitors drops visitors outside the window, at most once per
// pruneInterval. Counting filters by the window on its own.
func (s *Statistics) pruneVisitors(now time.Time) {
	if now.Sub(s.lastPrune) < pruneInterval {
		return
	}
	s.lastPrune = now

	cutoff := now.Add(-visitorWindow)
	for addr, last := range s.UniqueVisitors {
		if last.Before(cutoff) {
			delete(s.UniqueVisitors, addr)
		}
	}
}

// cleanURL reduces target to scheme, host and path. Local and API URLs are
// not tracked and yield "".
func cleanURL(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" || host == "127.0.0.1" || strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleaned := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}
	return strings.TrimSuffix(cleaned, "/")
}

// TrackAnalysis records one analysis of target that took loadTime
// milliseconds. It returns the total number of analysis requests.
func (s *Statistics) TrackAnalysis(target string, loadTime float64, hasError bool) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++
	if cleaned := cleanURL(target); cleaned != "" {
		s.PopularURLs[cleaned]++
	}
	if hasError {
		s.ErrorCount++
	}
	s.TotalLoadTime += loadTime

	return s.AnalysisRequests
}

func (s *Statistics) uniqueVisitors() int {
	cutoff := s.now().Add(-visitorWindow)
	count := 0
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

func (s *Statistics) errorRate() float64 {
	if s.AnalysisRequests == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.AnalysisRequests) * 100
}

func (s *Statistics) averageLoadTime() float64 {
	if s.AnalysisRequests == 0 {
		return 0
	}
	return s.TotalLoadTime / float64(s.AnalysisRequests)
}

func (s *Statistics) popularURLs(n int) []URLCount {
	ranked := make([]URLCount, 0, len(s.PopularURLs))
	for u, count := range s.PopularURLs {
		ranked = append(ranked, URLCount{URL: u, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].URL < ranked[j].URL
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// GetUniqueVisitorsCount returns the number of visitors seen in the last 24 hours.
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitors()
}

// GetErrorRate returns the error rate as a percentage.
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRate()
}

// GetPopularURLs returns the n most analyzed URLs, by count then URL.
func (s *Statistics) GetPopularURLs(n int) []URLCount {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.popularURLs(n)
}

// GetStatistics returns the current view. Popular URLs are only included in
// development mode.
func (s *Statistics) GetStatistics(devMode bool) Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap := Snapshot{
		UniqueVisitors24h: s.uniqueVisitors(),
		TotalRequests:     s.AnalysisRequests,
		ErrorRate:         s.errorRate(),
		AverageLoadTime:   s.averageLoadTime(),
	}
	if devMode {
		snap.PopularURLs = s.popularURLs(PopularLimit)
	}
	return snap
}

// Save persists the statistics to disk. It is a no-op for in-memory
// statistics.
func (s *Statistics) Save() error {
	if s.filePath == "" {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mutex.Lock()
	s.LastPersisted = s.now()
	data, err := json.Marshal(s)
	s.mutex.Unlock()
	if err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("could not write statistics file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("could not replace statistics file: %w", err)
	}

	s.logger.Debug("Saved request statistics", zap.String("path", s.filePath))
	return nil
}

func (s *Statistics) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PopularURLs == nil {
		s.PopularURLs = make(map[string]int)
	}
	return nil
}
