package apierror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studentpay/backoffice/internal/core/apierror"
)

func TestFromStatusKinds(t *testing.T) {
	assert.Equal(t, apierror.KindUnauthorized, apierror.FromStatus(401, "no").Kind)
	assert.Equal(t, apierror.KindUnauthorized, apierror.FromStatus(403, "no").Kind)
	assert.Equal(t, apierror.KindNotFound, apierror.FromStatus(404, "gone").Kind)
	assert.Equal(t, apierror.KindServer, apierror.FromStatus(500, "boom").Kind)
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("search users: %w", apierror.NetworkUnreachable("http://x", errors.New("refused")))
	assert.Equal(t, apierror.KindNetworkUnreachable, apierror.KindOf(err))

	assert.Equal(t, apierror.KindUnknown, apierror.KindOf(errors.New("plain")))
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("wallet lookup: %w", apierror.ErrWalletNotFound)
	assert.ErrorIs(t, wrapped, apierror.ErrWalletNotFound)

	// другой текст того же вида не совпадает с sentinel
	other := apierror.FromStatus(404, "resource gone")
	assert.NotErrorIs(t, other, apierror.ErrWalletNotFound)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, apierror.StatusOf(apierror.ErrInvalidCredentials))
	assert.Equal(t, http.StatusNotFound, apierror.StatusOf(apierror.ErrWalletNotFound))
	assert.Equal(t, http.StatusBadRequest, apierror.StatusOf(apierror.ErrInvalidAmount))
	assert.Equal(t, http.StatusInternalServerError, apierror.StatusOf(errors.New("weird")))
}
