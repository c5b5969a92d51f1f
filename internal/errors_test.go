package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/identity-service/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("matches sentinels through wrapping and copies", func() {
		err := fmt.Errorf("login: %w", internal.ErrInvalidCredentials.WithCause(errors.New("bcrypt mismatch")))
		Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeFalse())
	})

	It("does not mutate the shared sentinel", func() {
		_ = internal.ErrUserNotFound.WithDetails("x")
		Expect(internal.ErrUserNotFound.Details).To(BeNil())
	})

	It("serializes without the cause", func() {
		status, body := internal.NewInternalError("boom", errors.New("secret dsn")).ToHTTPResponse()
		Expect(status).To(Equal(http.StatusInternalServerError))

		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(MatchJSON(`{"error":{"type":"INTERNAL_ERROR","code":"INTERNAL_ERROR","message":"boom"}}`))
	})

	It("reports the first field error as its message", func() {
		err := internal.NewValidationFieldErrors([]internal.ValidationError{
			{Field: "email", Message: "email: must be a valid email address", Code: "validation_is_email"},
			{Field: "password", Message: "password: cannot be blank", Code: "validation_required"},
		})
		Expect(err.Error()).To(Equal("email: must be a valid email address"))
		Expect(err.GetDetailedMessage()).To(ContainSubstring("; password"))
	})
})
