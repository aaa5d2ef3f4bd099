// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

//go:build integration

package store_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/penwright/penwright/internal/store"
)

var _ = Describe("Transactor", func() {
	var (
		ctx        context.Context
		transactor *store.Transactor
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(testDB.Truncate(ctx)).To(Succeed())
		transactor = store.NewTransactor(testDB.Pool)
	})

	countUsers := func() int {
		var n int
		Expect(testDB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)).To(Succeed())
		return n
	}

	insertUser := func(ctx context.Context, email string) error {
		_, err := store.Conn(ctx, testDB.Pool).Exec(ctx,
			`INSERT INTO users (first_name, last_name, email, password_hash) VALUES ('A', 'B', $1, 'h')`, email)
		return err
	}

	It("commits writes made through Conn", func() {
		err := transactor.InTransaction(ctx, func(ctx context.Context) error {
			return insertUser(ctx, "a@example.com")
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(countUsers()).To(Equal(1))
	})

	It("rolls back every write when fn fails", func() {
		boom := errors.New("boom")
		err := transactor.InTransaction(ctx, func(ctx context.Context) error {
			Expect(insertUser(ctx, "a@example.com")).To(Succeed())
			Expect(insertUser(ctx, "b@example.com")).To(Succeed())
			return boom
		})
		Expect(errors.Is(err, boom)).To(BeTrue())
		Expect(countUsers()).To(Equal(0))
	})

	It("rejects deleting a user that still owns posts", func() {
		Expect(insertUser(ctx, "a@example.com")).To(Succeed())
		_, err := testDB.Pool.Exec(ctx, `
			INSERT INTO blog_posts (author_id, title, subtitle, date, body, img_url)
			VALUES (1, 'T', 'S', 'January 01, 2026', 'B', 'https://example.com/i.png')`)
		Expect(err).NotTo(HaveOccurred())

		_, err = testDB.Pool.Exec(ctx, `DELETE FROM users WHERE id = 1`)
		Expect(err).To(HaveOccurred(), "foreign keys do not cascade")
	})
})
