package controllers

import (
	"net/http"
	"strings"

	"github.com/posterops/poster-bridge/api/responses"
	"github.com/posterops/poster-bridge/api/validators"
	"github.com/posterops/poster-bridge/internal/transactions"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
)

const maxTransactionListLimit = 1000

type transactionListQuery struct {
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

type transactionSyncQuery struct {
	DateFrom string `json:"dateFrom" validate:"required,datetime=2006-01-02"`
	DateTo   string `json:"dateTo" validate:"omitempty,datetime=2006-01-02"`
}

// TransactionsList returns stored transactions for an inclusive date
// window. The response body is the bare array, matching the consumers
// of the original bridge endpoint.
func TransactionsList(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		query := transactionListQuery{
			StartDate: strings.TrimSpace(r.URL.Query().Get("startDate")),
			EndDate:   strings.TrimSpace(r.URL.Query().Get("endDate")),
		}
		if err := validators.ValidateStruct(query); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxTransactionListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		docs, err := svc.List(ctx, transactions.ListParams{
			StartDate: query.StartDate,
			EndDate:   query.EndDate,
			Limit:     limit,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, docs)
	}
}

// TransactionsSync triggers a bounded bulk pull from the upstream feed.
func TransactionsSync(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		query := transactionSyncQuery{
			DateFrom: strings.TrimSpace(r.URL.Query().Get("dateFrom")),
			DateTo:   strings.TrimSpace(r.URL.Query().Get("dateTo")),
		}
		if err := validators.ValidateStruct(query); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Sync(ctx, transactions.SyncParams{
			DateFrom: query.DateFrom,
			DateTo:   query.DateTo,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
