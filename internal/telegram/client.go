// Package telegram connects the flow controller to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"net"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/net/proxy"
)

//go:generate mockgen -source=client.go -destination=mock_client.go -package=telegram

// Client is the subset of *tgbotapi.BotAPI the bot uses.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Client = (*tgbotapi.BotAPI)(nil)

// ProxyConfig is an optional SOCKS5 proxy.
type ProxyConfig struct {
	Server string
	User   string
	Pass   string
}

// NewAPI authorizes token, dialing through the proxy when one is set.
func NewAPI(token string, px ProxyConfig) (*tgbotapi.BotAPI, error) {
	if px.Server == "" {
		api, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			return nil, fmt.Errorf("connecting to bot API: %w", err)
		}
		return api, nil
	}

	client, err := proxyClient(px)
	if err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connecting to bot API via proxy %s: %w", px.Server, err)
	}
	return api, nil
}

func proxyClient(px ProxyConfig) (*http.Client, error) {
	var auth *proxy.Auth
	if px.User != "" {
		auth = &proxy.Auth{User: px.User, Password: px.Pass}
	}
	dialer, err := proxy.SOCKS5("tcp", px.Server, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("creating proxy dialer: %w", err)
	}

	transport := &http.Transport{}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return &http.Client{Transport: transport}, nil
}
