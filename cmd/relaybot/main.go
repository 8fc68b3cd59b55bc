// relaybot bridges an IRC channel's ".request" commands onto the station's
// mutation API. It deliberately knows nothing about the IRC protocol itself:
// it consumes "<nick> .request <query>" lines on stdin (the shape most IRC
// client tee-pipes emit) and turns each into a POST /api/irc/request. A
// simulation mode generates periodic canned requests for local development.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type relayConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	Nick     string        `mapstructure:"nick"`
	Simulate bool          `mapstructure:"simulate"`
	Interval time.Duration `mapstructure:"interval"`
}

func loadConfig() (*relayConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()

	v.SetDefault("api_url", "http://localhost:8080/api/irc/request")
	v.SetDefault("nick", "radioBot")
	v.SetDefault("simulate", false)
	v.SetDefault("interval", 30*time.Second)

	for _, key := range []string{"api_url", "nick", "simulate", "interval"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg relayConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type requestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func postRequest(client *http.Client, apiURL, username, query string) (requestResult, error) {
	body, err := json.Marshal(map[string]string{"username": username, "query": query})
	if err != nil {
		return requestResult{}, err
	}
	resp, err := client.Post(apiURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return requestResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return requestResult{}, fmt.Errorf("api responded %s", resp.Status)
	}
	var result requestResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return requestResult{}, err
	}
	return result, nil
}

// parseLine extracts (nick, query) from "<nick> .request <query>" or
// "<nick>: .request <query>". Lines without a .request command are skipped.
func parseLine(line, fallbackNick string) (string, string, bool) {
	idx := strings.Index(line, ".request ")
	if idx < 0 {
		return "", "", false
	}
	query := strings.TrimSpace(line[idx+len(".request "):])
	if query == "" {
		return "", "", false
	}
	nick := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line[:idx]), ":"))
	if nick == "" {
		nick = fallbackNick
	}
	return nick, query, true
}

func runStdin(cfg *relayConfig, client *http.Client, log *zap.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		nick, query, ok := parseLine(scanner.Text(), cfg.Nick)
		if !ok {
			continue
		}
		result, err := postRequest(client, cfg.APIURL, nick, query)
		if err != nil {
			log.Warn("request failed", zap.String("nick", nick), zap.Error(err))
			continue
		}
		log.Info("request relayed",
			zap.String("nick", nick),
			zap.String("query", query),
			zap.Bool("queued", result.Success),
		)
	}
	return scanner.Err()
}

var sampleRequests = []struct{ nick, query string }{
	{"CyberFan_92", "neon"},
	{"SynthRider", "midnight"},
	{"GridRunner", "chrome"},
	{"NightDriver", "rain"},
}

func runSimulate(cfg *relayConfig, client *http.Client, log *zap.Logger) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		<-ticker.C
		req := sampleRequests[i%len(sampleRequests)]
		result, err := postRequest(client, cfg.APIURL, req.nick, req.query)
		if err != nil {
			log.Warn("simulated request failed", zap.Error(err))
			continue
		}
		log.Info("simulated request",
			zap.String("nick", req.nick),
			zap.String("query", req.query),
			zap.Bool("queued", result.Success),
		)
	}
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	client := &http.Client{Timeout: 10 * time.Second}

	if cfg.Simulate {
		logger.Info("relaybot simulating requests",
			zap.String("api_url", cfg.APIURL),
			zap.Duration("interval", cfg.Interval),
		)
		runSimulate(cfg, client, logger)
		return
	}

	logger.Info("relaybot reading stdin", zap.String("api_url", cfg.APIURL))
	if err := runStdin(cfg, client, logger); err != nil {
		logger.Fatal("stdin", zap.Error(err))
	}
}
