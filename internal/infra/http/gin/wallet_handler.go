package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentflow/internal/app/dto"
	walletapp "rentflow/internal/app/handlers/wallet"
	"rentflow/internal/app/queries"
)

type WalletHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h WalletHandler) Transactions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		badRequest(c, err)
		return
	}
	query := walletapp.ListTransactionsQuery{
		ActorID: actor,
		UserID:  strings.TrimSpace(c.Param("userId")),
		Limit:   limit,
		Offset:  offset,
	}
	result, err := queries.Ask[walletapp.ListTransactionsQuery, dto.WalletStatement](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

var _ WalletHTTP = WalletHandler{}
