package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/aid"
	"github.com/yardimel/yardimel/core/audit"
	"github.com/yardimel/yardimel/core/cms"
	"github.com/yardimel/yardimel/core/family"
	"github.com/yardimel/yardimel/core/finance"
	"github.com/yardimel/yardimel/core/inventory"
	"github.com/yardimel/yardimel/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// notFoundErrs are domain errors rendered as 404s.
var notFoundErrs = map[error]struct{}{
	user.ErrNotFound:               {},
	family.ErrNotFound:             {},
	family.ErrMemberNotFound:       {},
	family.ErrDocumentNotFound:     {},
	inventory.ErrItemNotFound:      {},
	inventory.ErrCategoryNotFound:  {},
	inventory.ErrDonorNotFound:     {},
	inventory.ErrMovementNotFound:  {},
	inventory.ErrCountNotFound:     {},
	aid.ErrNotFound:                {},
	aid.ErrItemNotFound:            {},
	aid.ErrDistributionNotFound:    {},
	finance.ErrCashAidNotFound:     {},
	finance.ErrInvoiceNotFound:     {},
	finance.ErrTransactionNotFound: {},
	finance.ErrBudgetNotFound:      {},
	cms.ErrNewsNotFound:            {},
	cms.ErrCategoryNotFound:        {},
	cms.ErrPageNotFound:            {},
	cms.ErrGalleryNotFound:         {},
	cms.ErrPhotoNotFound:           {},
	cms.ErrFAQNotFound:             {},
	cms.ErrTestimonialNotFound:     {},
	cms.ErrMessageNotFound:         {},
	audit.ErrNotFound:              {},
}

// conflictErrs are domain errors rendered as 409s: uniqueness clashes and
// workflow transitions the current state does not allow.
var conflictErrs = map[error]struct{}{
	family.ErrHeadExists:           {},
	inventory.ErrInsufficientStock: {},
	inventory.ErrCountClosed:       {},
	inventory.ErrCountItemExists:   {},
	aid.ErrInvalidTransition:       {},
	aid.ErrDistributionClosed:      {},
	finance.ErrInvalidTransition:   {},
	finance.ErrInvoiceNotAvailable: {},
	finance.ErrInvoiceNotReserved:  {},
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if _, ok := notFoundErrs[cause]; ok {
			cause = echo.NewHTTPError(http.StatusNotFound, cause.Error())
		} else if _, ok := conflictErrs[cause]; ok {
			cause = echo.NewHTTPError(http.StatusConflict, cause.Error())
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
