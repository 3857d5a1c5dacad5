package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PrepareDocument", func() {
	var (
		data        []byte
		contentType string
		result      []byte
		mimeType    string
		converted   bool
		err         error
	)

	JustBeforeEach(func() {
		result, mimeType, converted, err = PrepareDocument(data, contentType)
	})

	When("the document is a PNG", func() {
		BeforeEach(func() {
			img := image.NewRGBA(image.Rect(0, 0, 2, 2))
			img.Set(0, 0, color.Black)
			var buf bytes.Buffer
			Expect(png.Encode(&buf, img)).To(Succeed())
			data = buf.Bytes()
			contentType = "image/png"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should pass the data through", func() {
			Expect(result).To(Equal(data))
			Expect(converted).To(BeFalse())
			Expect(mimeType).To(Equal("image/png"))
		})
	})

	When("the document is a PDF with a noisy content type", func() {
		BeforeEach(func() {
			data = []byte("%PDF-1.4 fake")
			contentType = "  Application/PDF "
		})

		It("should normalize the MIME type", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(mimeType).To(Equal("application/pdf"))
		})
	})

	When("no content type is given", func() {
		BeforeEach(func() {
			data = []byte("jpeg bytes")
			contentType = ""
		})

		It("should assume JPEG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(mimeType).To(Equal("image/jpeg"))
		})
	})

	When("the format is not supported", func() {
		BeforeEach(func() {
			data = []byte("GIF89a")
			contentType = "image/gif"
		})

		It("returns ErrUnsupportedDocument", func() {
			Expect(err).To(MatchError(ErrUnsupportedDocument))
		})
	})

	When("the data looks like HEIC but is corrupt", func() {
		BeforeEach(func() {
			data = append([]byte{0, 0, 0, 24}, []byte("ftypheic garbage")...)
			contentType = "image/jpeg"
		})

		It("should try to convert it", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("decoding HEIC/HEIF image"))
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("should detect HEIC brands", func() {
		Expect(isHEICFormat(append([]byte{0, 0, 0, 24}, []byte("ftypmif1")...))).To(BeTrue())
	})

	It("should reject short data", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
	})

	It("should reject other ftyp brands", func() {
		Expect(isHEICFormat(append([]byte{0, 0, 0, 24}, []byte("ftypisom")...))).To(BeFalse())
	})
})
