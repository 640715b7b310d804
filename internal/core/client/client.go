package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/studentpay/backoffice/internal/core/apierror"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/models"
	"github.com/studentpay/backoffice/internal/core/store"
)

// Mode задаёт источник данных клиента.
type Mode int

const (
	// RemoteOnly - транспортный сбой возвращается вызывающему как
	// apierror.KindNetworkUnreachable.
	RemoteOnly Mode = iota
	// RemoteWithFallback - транспортный сбой перенаправляет тот же
	// логический вызов в mock-хранилище; событие отдаётся в hook и лог.
	RemoteWithFallback
	// MockOnly - все вызовы идут в mock-хранилище, сеть не трогается.
	MockOnly
)

// FallbackEvent описывает один переход на mock-данные.
type FallbackEvent struct {
	Operation string
	URL       string
	Cause     error
}

type Config struct {
	BaseURL         string
	Mode            Mode
	WithCredentials bool // пересылать cookie сессии
	Timeout         time.Duration

	// OnFallback вызывается на каждом переходе в демо-режим.
	// Должен быть безопасен для конкурентных вызовов; может быть nil.
	OnFallback func(FallbackEvent)
}

// Client переводит типизированные операции над ресурсами в HTTP-запросы и
// детерминированно уходит в mock-хранилище при недоступности бэкенда.
// Сам удовлетворяет store.Store, поэтому для workflow он неотличим от mock.
type Client struct {
	base       string
	mode       Mode
	http       *http.Client
	fallback   store.Store
	onFallback func(FallbackEvent)
	log        logger.Logger
}

// New собирает клиент. fallback обязателен для режимов RemoteWithFallback и
// MockOnly, в RemoteOnly может быть nil.
func New(cfg Config, fallback store.Store, log logger.Logger) (*Client, error) {
	if cfg.Mode != RemoteOnly && fallback == nil {
		return nil, fmt.Errorf("client: mode %d requires a fallback store", cfg.Mode)
	}

	hc := &http.Client{Timeout: cfg.Timeout}
	if cfg.WithCredentials {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	return &Client{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		mode:       cfg.Mode,
		http:       hc,
		fallback:   fallback,
		onFallback: cfg.OnFallback,
		log:        log,
	}, nil
}

func (c *Client) Mode() Mode { return c.mode }

// do выполняет один HTTP-вызов: JSON-тело при наличии, разбор ответа в out.
// Не-2xx превращается в apierror по статусу, 204 и пустое тело - пустой успех,
// транспортный сбой - apierror.KindNetworkUnreachable.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.base + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apierror.NetworkUnreachable(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			text = []byte(resp.Status)
		}
		return apierror.FromStatus(resp.StatusCode, strings.TrimSpace(string(text)))
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// divert решает, перенаправлять ли сбой в mock-хранилище, и делает
// переход наблюдаемым: warn в лог плюс hook.
func (c *Client) divert(op, path string, err error) bool {
	if c.mode != RemoteWithFallback || c.fallback == nil {
		return false
	}
	if apierror.KindOf(err) != apierror.KindNetworkUnreachable {
		return false
	}
	c.log.Warn("backend unreachable, serving from mock data",
		logger.StringField("operation", op),
		logger.StringField("url", c.base+path),
		logger.ErrorField("cause", err))
	if c.onFallback != nil {
		c.onFallback(FallbackEvent{Operation: op, URL: c.base + path, Cause: err})
	}
	return true
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	if c.mode == MockOnly {
		return c.fallback.Login(ctx, email, password)
	}
	// бэкенд ждёт ключи "mail" и "mot de passe", не email/password
	creds := models.Credentials{Email: email, Password: password}
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &user); err != nil {
		if c.divert("login", "/auth/login", err) {
			return c.fallback.Login(ctx, email, password)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	if c.mode == MockOnly {
		return c.fallback.ListUsers(ctx)
	}
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		if c.divert("list users", "/users", err) {
			return c.fallback.ListUsers(ctx)
		}
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	if c.mode == MockOnly {
		return c.fallback.CreateUser(ctx, user)
	}
	var created models.User
	if err := c.do(ctx, http.MethodPost, "/users", user, &created); err != nil {
		if c.divert("create user", "/users", err) {
			return c.fallback.CreateUser(ctx, user)
		}
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, user models.User) (*models.User, error) {
	if c.mode == MockOnly {
		return c.fallback.UpdateUser(ctx, id, user)
	}
	path := "/users/" + id
	var updated models.User
	if err := c.do(ctx, http.MethodPut, path, user, &updated); err != nil {
		if c.divert("update user", path, err) {
			return c.fallback.UpdateUser(ctx, id, user)
		}
		return nil, err
	}
	if updated.ID == "" {
		// пустой успех: бэкенд не нашёл id
		return nil, nil
	}
	return &updated, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if c.mode == MockOnly {
		return c.fallback.DeleteUser(ctx, id)
	}
	path := "/users/" + id
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		if c.divert("delete user", path, err) {
			return c.fallback.DeleteUser(ctx, id)
		}
		return err
	}
	return nil
}

func (c *Client) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	if c.mode == MockOnly {
		return c.fallback.ListWallets(ctx)
	}
	var wallets []models.Wallet
	if err := c.do(ctx, http.MethodGet, "/wallets", nil, &wallets); err != nil {
		if c.divert("list wallets", "/wallets", err) {
			return c.fallback.ListWallets(ctx)
		}
		return nil, err
	}
	return wallets, nil
}

func (c *Client) WalletByUser(ctx context.Context, userID string) (*models.Wallet, error) {
	if c.mode == MockOnly {
		return c.fallback.WalletByUser(ctx, userID)
	}
	path := "/wallets/user/" + userID
	var wallet models.Wallet
	if err := c.do(ctx, http.MethodGet, path, nil, &wallet); err != nil {
		if c.divert("wallet by user", path, err) {
			return c.fallback.WalletByUser(ctx, userID)
		}
		return nil, err
	}
	return &wallet, nil
}

func (c *Client) CreateWallet(ctx context.Context, wallet models.Wallet) (*models.Wallet, error) {
	if c.mode == MockOnly {
		return c.fallback.CreateWallet(ctx, wallet)
	}
	var created models.Wallet
	if err := c.do(ctx, http.MethodPost, "/wallets", wallet, &created); err != nil {
		if c.divert("create wallet", "/wallets", err) {
			return c.fallback.CreateWallet(ctx, wallet)
		}
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateWallet(ctx context.Context, id string, wallet models.Wallet) (*models.Wallet, error) {
	if c.mode == MockOnly {
		return c.fallback.UpdateWallet(ctx, id, wallet)
	}
	path := "/wallets/" + id
	var updated models.Wallet
	if err := c.do(ctx, http.MethodPut, path, wallet, &updated); err != nil {
		if c.divert("update wallet", path, err) {
			return c.fallback.UpdateWallet(ctx, id, wallet)
		}
		return nil, err
	}
	if updated.ID == "" {
		return nil, nil
	}
	return &updated, nil
}

func (c *Client) DeleteWallet(ctx context.Context, id string) error {
	if c.mode == MockOnly {
		return c.fallback.DeleteWallet(ctx, id)
	}
	path := "/wallets/" + id
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		if c.divert("delete wallet", path, err) {
			return c.fallback.DeleteWallet(ctx, id)
		}
		return err
	}
	return nil
}

func (c *Client) CreateTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	if c.mode == MockOnly {
		return c.fallback.CreateTransaction(ctx, tx)
	}
	var created models.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", tx, &created); err != nil {
		if c.divert("create transaction", "/transactions", err) {
			return c.fallback.CreateTransaction(ctx, tx)
		}
		return nil, err
	}
	return &created, nil
}

func (c *Client) TransactionsByWallet(ctx context.Context, walletID string) ([]models.Transaction, error) {
	if c.mode == MockOnly {
		return c.fallback.TransactionsByWallet(ctx, walletID)
	}
	path := "/transactions/" + walletID
	var txs []models.Transaction
	if err := c.do(ctx, http.MethodGet, path, nil, &txs); err != nil {
		if c.divert("transaction history", path, err) {
			return c.fallback.TransactionsByWallet(ctx, walletID)
		}
		return nil, err
	}
	return txs, nil
}

var _ store.Store = (*Client)(nil)
