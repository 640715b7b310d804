package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/studentpay/backoffice/internal/core/apierror"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/models"
	"github.com/studentpay/backoffice/internal/core/store"
)

// Handler обслуживает HTTP-контракт бэкенда поверх любого store.Store.
type Handler struct {
	store store.Store
	log   logger.Logger
}

func New(st store.Store, log logger.Logger) *Handler {
	return &Handler{store: st, log: log}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.Login).Methods("POST")

	router.HandleFunc("/users", h.ListUsers).Methods("GET")
	router.HandleFunc("/users", h.CreateUser).Methods("POST")
	router.HandleFunc("/users/{id}", h.UpdateUser).Methods("PUT")
	router.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")

	router.HandleFunc("/wallets", h.ListWallets).Methods("GET")
	router.HandleFunc("/wallets", h.CreateWallet).Methods("POST")
	router.HandleFunc("/wallets/user/{userId}", h.WalletByUser).Methods("GET")
	router.HandleFunc("/wallets/{id}", h.UpdateWallet).Methods("PUT")
	router.HandleFunc("/wallets/{id}", h.DeleteWallet).Methods("DELETE")

	router.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	router.HandleFunc("/transactions/{walletId}", h.TransactionsByWallet).Methods("GET")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := h.decode(w, r, &creds); err != nil {
		respondWithError(w, apierror.StatusOf(err), err.Error())
		return
	}

	user, err := h.store.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.log.Warn("login rejected", logger.StringField("email", creds.Email))
		respondWithError(w, apierror.StatusOf(err), err.Error())
		return
	}
	// секрет не эхо-варится обратно
	user.Password = ""
	respondWithJSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.serverError(w, "list users", err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := h.decode(w, r, &user); err != nil {
		respondWithError(w, apierror.StatusOf(err), err.Error())
		return
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		h.serverError(w, "create user", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := h.decode(w, r, &user); err != nil {
		respondWithError(w, apierror.StatusOf(err), err.Error())
		return
	}
	updated, err := h.store.UpdateUser(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		h.serverError(w, "update user", err)
		return
	}
	if updated == nil {
		// отсутствующий id - пустой успех, контрактная снисходительность
		respondWithJSON(w, http.StatusOK, struct{}{})
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteUser(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.serverError(w, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.store.ListWallets(r.Context())
	if err != nil {
		h.serverError(w, "list wallets", err)
		return
	}
	respondWithJSON(w, http.StatusOK, wallets)
}

func (h *Handler) WalletByUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	wallet, err := h.store.WalletByUser(r.Context(), userID)
	if err != nil {
		if apierror.KindOf(err) == apierror.KindNotFound {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		h.serverError(w, "wallet by user", err)
		return
	}
	respondWithJSON(w, http.StatusOK, wallet)
}

func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var wallet models.Wallet
	if err := h.decode(w, r, &wallet); err != nil {
		respondWithError(w, apierror.StatusOf(err), err.Error())
		return
	}
	created, err := h.store.CreateWallet(r.Context(), wallet)
	if err != nil {
		h.serverError(w, "create wallet", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	var wallet models.Wallet
	if err := h.decode(w, r, &wallet); err != nil {
		respondWithError(w, apierror.StatusOf(err), err.Error())
		return
	}
	updated, err := h.store.UpdateWallet(r.Context(), mux.Vars(r)["id"], wallet)
	if err != nil {
		h.serverError(w, "update wallet", err)
		return
	}
	if updated == nil {
		respondWithJSON(w, http.StatusOK, struct{}{})
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteWallet(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.serverError(w, "delete wallet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if err := h.decode(w, r, &tx); err != nil {
		respondWithError(w, apierror.StatusOf(err), err.Error())
		return
	}
	if tx.Amount.IsNegative() {
		respondWithError(w, http.StatusBadRequest, apierror.ErrInvalidAmount.Message)
		return
	}
	created, err := h.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		h.serverError(w, "create transaction", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) TransactionsByWallet(w http.ResponseWriter, r *http.Request) {
	txs, err := h.store.TransactionsByWallet(r.Context(), mux.Vars(r)["walletId"])
	if err != nil {
		h.serverError(w, "transaction history", err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	respondWithJSON(w, http.StatusOK, txs)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Warn("failed to decode request body", logger.ErrorField("error", err))
		return apierror.Domain("invalid request payload")
	}
	return nil
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.log.Error("operation failed",
		logger.StringField("operation", op),
		logger.ErrorField("error", err))
	respondWithError(w, apierror.StatusOf(err), err.Error())
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal Server Error"}`)) // Fallback response
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
