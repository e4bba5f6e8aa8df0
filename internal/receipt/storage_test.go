package receipt

import (
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage *LocalStorage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "uploads"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("stores the file under the record ID", func() {
			name, err := storage.Save("rec-1", "receipt.png", []byte("image-data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("rec-1_receipt.png"))
		})

		It("sanitizes special characters in the filename", func() {
			name, err := storage.Save("rec-1", "IMG_#123 (edited)!.jpg", []byte("image-data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("rec-1_IMG_123 edited.jpg"))
		})

		It("truncates long phone-generated filenames", func() {
			long := strings.Repeat("a", 80)
			name, err := storage.Save("rec-1", long+".png", []byte("image-data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("rec-1_" + strings.Repeat("a", 50) + ".png"))
		})

		It("falls back to a default name when nothing survives sanitization", func() {
			name, err := storage.Save("rec-1", "###.pdf", []byte("pdf-data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("rec-1_receipt.pdf"))
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			var name string

			BeforeEach(func() {
				var err error
				name, err = storage.Save("rec-1", "receipt.png", []byte("image-data"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return its contents", func() {
				data, err := storage.Get(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("image-data")))
			})
		})

		When("the file does not exist", func() {
			It("should return an error", func() {
				_, err := storage.Get("missing.png")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		var name string

		BeforeEach(func() {
			var err error
			name, err = storage.Save("rec-1", "receipt.png", []byte("image-data"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should remove the file", func() {
			Expect(storage.Delete(name)).To(Succeed())
			_, err := storage.Get(name)
			Expect(err).To(HaveOccurred())
		})
	})
})
