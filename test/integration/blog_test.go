// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/penwright/penwright/internal/access"
	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/pkg/errutil"
)

var _ = Describe("Concurrent writers", func() {
	const goroutines = 20

	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("accepts exactly one of many posts racing for the same title", func() {
		author := register(ctx, "writer@example.com")

		var created, duplicates atomic.Int32
		var wg sync.WaitGroup
		for range goroutines {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := svc.blog.CreatePost(author, samplePost("Race"))
				switch {
				case err == nil:
					created.Add(1)
				case errutil.HasCode(err, blog.CodeDuplicateTitle):
					duplicates.Add(1)
				default:
					Fail(fmt.Sprintf("unexpected error: %v", err))
				}
			}()
		}
		wg.Wait()

		Expect(created.Load()).To(Equal(int32(1)))
		Expect(duplicates.Load()).To(Equal(int32(goroutines - 1)))

		posts, err := svc.blog.ListPosts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(posts).To(HaveLen(1))
	})

	It("registers exactly one of many accounts racing for the same email", func() {
		var registered atomic.Int32
		var wg sync.WaitGroup
		for range goroutines {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := svc.auth.Register(ctx, auth.RegisterInput{
					FirstName: "Same", LastName: "Person", Email: "same@example.com", Password: "pw123",
				}, auth.ClientInfo{})
				if err == nil {
					registered.Add(1)
					return
				}
				Expect(errutil.HasCode(err, auth.CodeDuplicateEmail)).To(BeTrue(), "got %v", err)
			}()
		}
		wg.Wait()

		Expect(registered.Load()).To(Equal(int32(1)))
		users, err := svc.directory.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(1))
	})

	It("keeps every comment when many readers comment at once", func() {
		author := register(ctx, "writer@example.com")
		post, err := svc.blog.CreatePost(author, samplePost("Busy"))
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		for i := range goroutines {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := svc.blog.AddComment(author, post.ID, fmt.Sprintf("<p>comment %d</p>", i))
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		comments, err := svc.blog.ListComments(ctx, post.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(comments).To(HaveLen(goroutines))
		for _, c := range comments {
			Expect(c.Text).NotTo(ContainSubstring("<p>"))
		}
	})
})

var _ = Describe("Roles", func() {
	var (
		ctx    context.Context
		admin  context.Context
		member context.Context
		post   *blog.Post
	)

	BeforeEach(func() {
		ctx = context.Background()
		admin = register(ctx, "admin@example.com")
		member = register(ctx, "member@example.com")

		var err error
		post, err = svc.blog.CreatePost(member, samplePost("Mine"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("makes the first registered user the admin", func() {
		Expect(auth.IdentityFrom(admin).Role).To(Equal(auth.RoleAdmin))
		Expect(auth.IdentityFrom(member).Role).To(Equal(auth.RoleMember))
	})

	It("does not let an author delete their own post", func() {
		err := svc.blog.DeletePost(member, post.ID)
		Expect(errors.Is(err, access.ErrForbidden)).To(BeTrue())

		_, err = svc.blog.GetPost(ctx, post.ID)
		Expect(err).NotTo(HaveOccurred())
	})

	It("lets the admin delete any post with its comments", func() {
		_, err := svc.blog.AddComment(member, post.ID, "first")
		Expect(err).NotTo(HaveOccurred())

		Expect(svc.blog.DeletePost(admin, post.ID)).To(Succeed())

		_, err = svc.blog.GetPost(ctx, post.ID)
		Expect(errors.Is(err, blog.ErrNotFound)).To(BeTrue())
		comments, err := svc.blog.ListComments(ctx, post.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(comments).To(BeEmpty())
	})
})

var _ = Describe("Directory purge", func() {
	It("removes every user and everything they wrote", func() {
		ctx := context.Background()
		a := register(ctx, "a@example.com")
		b := register(ctx, "b@example.com")

		post, err := svc.blog.CreatePost(a, samplePost("Doomed"))
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.blog.AddComment(b, post.ID, "reply")
		Expect(err).NotTo(HaveOccurred())

		n, err := svc.directory.PurgeAllUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		users, err := svc.directory.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(BeEmpty())
		posts, err := svc.blog.ListPosts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(posts).To(BeEmpty())

		_, err = svc.auth.Authenticate(ctx, "no-such-token")
		Expect(err).To(HaveOccurred())
	})
})
