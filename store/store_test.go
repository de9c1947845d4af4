package store_test

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/aistorehq/kvstore/internal/cos"
	"github.com/aistorehq/kvstore/store"
)

var _ = Describe("Store", func() {
	var s *store.Store

	BeforeEach(func() {
		s = store.New(4)
	})

	It("round-trips a set value", func() {
		Expect(s.Set("hello", "world")).To(Succeed())
		v, err := s.Get("hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("world"))
	})

	It("overwrites on a second set", func() {
		Expect(s.Set("k", "v1")).To(Succeed())
		Expect(s.Set("k", "v2")).To(Succeed())
		v, err := s.Get("k")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("v2"))
	})

	It("removes a binding on delete", func() {
		Expect(s.Set("k", "v")).To(Succeed())
		Expect(s.Delete("k")).To(Succeed())
		_, err := s.Get("k")
		Expect(cos.IsErrNotFound(err)).To(BeTrue())
	})

	It("reports not-found for a miss", func() {
		_, err := s.Get("absent")
		Expect(cos.IsErrNotFound(err)).To(BeTrue())
	})

	It("reports not-found deleting an absent key", func() {
		err := s.Delete("absent")
		Expect(cos.IsErrNotFound(err)).To(BeTrue())
	})

	It("empties every binding on clear", func() {
		Expect(s.Set("a", "1")).To(Succeed())
		Expect(s.Set("b", "2")).To(Succeed())
		Expect(s.Clear()).To(Succeed())

		_, err := s.Get("a")
		Expect(cos.IsErrNotFound(err)).To(BeTrue())
		_, err = s.Get("b")
		Expect(cos.IsErrNotFound(err)).To(BeTrue())
	})

	It("serves concurrent sets on disjoint keys without loss", func() {
		const (
			workers   = 10
			perWorker = 2000
		)
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					key := fmt.Sprintf("w%d-%d", w, i)
					Expect(s.Set(key, key)).To(Succeed())
				}
			}(w)
		}
		wg.Wait()

		for w := 0; w < workers; w++ {
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d-%d", w, i)
				v, err := s.Get(key)
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(key))
			}
		}
	})

	It("never observes a value that was never set under concurrent set/get", func() {
		const iterations = 5000
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				Expect(s.Set("hot", fmt.Sprintf("v%d", i))).To(Succeed())
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				v, err := s.Get("hot")
				if err == nil {
					Expect(v).To(HavePrefix("v"))
				}
			}
		}()
		wg.Wait()
	})

	It("defaults to a single shard when constructed with New(0) or New(1)", func() {
		single := store.New(0)
		Expect(single.Set("k", "v")).To(Succeed())
		v, err := single.Get("k")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("v"))
	})
})
