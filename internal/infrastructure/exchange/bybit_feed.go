package exchange

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PriceFeed streams last-traded prices for one symbol from a Bybit-style
// public websocket. It is the live alternative to driving the tool from the
// web replay channel.
type PriceFeed struct {
	wsURL  string
	symbol string
	log    *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	callbacks []func(price float64)
}

func NewPriceFeed(wsURL, symbol string, log *zap.Logger) *PriceFeed {
	return &PriceFeed{wsURL: wsURL, symbol: symbol, log: log}
}

func (f *PriceFeed) OnPriceUpdate(callback func(price float64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, callback)
}

func (f *PriceFeed) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn != nil {
		return nil
	}

	c, _, err := websocket.DefaultDialer.Dial(f.wsURL, nil)
	if err != nil {
		return err
	}
	f.conn = c

	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": []string{"publicTrade." + f.symbol},
	}
	if err := c.WriteJSON(subMsg); err != nil {
		c.Close()
		f.conn = nil
		return err
	}

	go f.readLoop(c)
	return nil
}

func (f *PriceFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

func (f *PriceFeed) readLoop(c *websocket.Conn) {
	defer func() {
		c.Close()
		f.mu.Lock()
		if f.conn == c {
			f.conn = nil
		}
		f.mu.Unlock()
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			f.log.Warn("feed read error", zap.Error(err))
			return
		}

		var event map[string]interface{}
		if err := json.Unmarshal(message, &event); err != nil {
			f.log.Warn("feed unmarshal error", zap.Error(err))
			continue
		}

		topic, ok := event["topic"].(string)
		if !ok || !strings.HasPrefix(topic, "publicTrade.") {
			continue
		}

		data, ok := event["data"].([]interface{})
		if !ok {
			continue
		}

		for _, item := range data {
			trade, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			priceStr, _ := trade["p"].(string)
			price, err := strconv.ParseFloat(priceStr, 64)
			if err != nil || price <= 0 {
				continue
			}

			f.mu.Lock()
			callbacks := make([]func(float64), len(f.callbacks))
			copy(callbacks, f.callbacks)
			f.mu.Unlock()

			for _, cb := range callbacks {
				cb(price)
			}
		}
	}
}
