package database_test

import (
	"context"

	"github.com/frahmantamala/identity-service/internal"
	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"
	"github.com/frahmantamala/identity-service/internal/database"
	"github.com/frahmantamala/identity-service/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Open", func() {
	It("opens the sqlite database named by the configured DSN", func() {
		cfg := internal.DatabaseConfig{Driver: "sqlite", Source: ":memory:"}
		Expect(cfg.GetDSN()).To(Equal(":memory:"))

		db, err := database.Open(cfg, logger.Discard())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		Expect(db.PingContext(context.Background())).To(Succeed())
		Expect(database.AutoMigrate(db.Gorm)).To(Succeed())
		Expect(db.Gorm.Migrator().HasTable(&userDatamodel.User{})).To(BeTrue())
	})
})
