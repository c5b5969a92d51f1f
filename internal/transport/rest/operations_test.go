package rest_test

import (
	"github.com/frahmantamala/identity-service/internal/permission"
	"github.com/frahmantamala/identity-service/internal/transport/rest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Operations", func() {
	ops := rest.Operations{}

	DescribeTable("required permissions",
		func(op string, expected []string) {
			if expected == nil {
				Expect(ops.RequiredPermissions(op)).To(BeEmpty())
				return
			}
			Expect(ops.RequiredPermissions(op)).To(Equal(expected))
		},
		Entry("login is open", rest.OpLogin, nil),
		Entry("current user only needs authentication", rest.OpGetCurrentUser, nil),
		Entry("unknown operations are open", "nope", nil),
		Entry("listing users", rest.OpListUsers, []string{permission.ViewUsers}),
		Entry("assigning permissions", rest.OpAssignUserPermissions, []string{permission.ManagePermissions}),
		Entry("reading the directory", rest.OpGetPermission, []string{permission.ViewPermissions}),
	)

	It("returns a copy callers cannot mutate", func() {
		keys := ops.RequiredPermissions(rest.OpListUsers)
		keys[0] = "tampered"
		Expect(ops.RequiredPermissions(rest.OpListUsers)).To(Equal([]string{permission.ViewUsers}))
	})

	It("lists operation ids sorted", func() {
		ids := rest.OperationIDs()
		Expect(ids).To(ContainElements(rest.OpPing, rest.OpCreatePermission))
		Expect(ids).To(HaveLen(15))
		for i := 1; i < len(ids); i++ {
			Expect(ids[i-1] < ids[i]).To(BeTrue())
		}
	})
})
