package attachment

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

func TestMediaTypeOfTable(t *testing.T) {
	cases := map[string]MediaType{
		"photo.jpg":      "image/jpeg",
		"photo.JPEG":     "image/jpeg",
		"icon.png":       "image/png",
		"anim.gif":       "image/gif",
		"pic.webp":       "image/webp",
		"scan.pdf":       "application/pdf",
		"clip.mp4":       "video/mp4",
		"clip.webm":      "video/webm",
		"clip.MOV":       "video/quicktime",
		"note.txt":       "text/plain",
		"archive.tar.gz": OctetStream,
		"README":         OctetStream,
		"trailing.":      OctetStream,
		"":               OctetStream,
		".hidden":        OctetStream,
	}
	for name, want := range cases {
		assert.Equal(t, want, MediaTypeOf(name), name)
	}
}

func TestImageVideoExclusive(t *testing.T) {
	names := []string{"a.jpg", "b.png", "c.mp4", "d.mov", "e.pdf", "f.txt", "g", "h.exe", "i.webm", "j.webp"}
	for _, n := range names {
		img, vid := IsImage(n), IsVideo(n)
		assert.False(t, img && vid, n)
		assert.Equal(t, strings.HasPrefix(string(MediaTypeOf(n)), "image/"), img, n)
		assert.Equal(t, strings.HasPrefix(string(MediaTypeOf(n)), "video/"), vid, n)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindImage, KindOf("photo.jpg"))
	assert.Equal(t, KindVideo, KindOf("clip.mp4"))
	assert.Equal(t, KindDocument, KindOf("scan.pdf"))
	assert.Equal(t, KindDocument, KindOf("note.txt"))
	assert.Equal(t, KindGeneric, KindOf("data.bin"))
	assert.Equal(t, "document", KindDocument.String())
}

func TestLocatorRoundTrip(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake"))
	a := models.Attachment{FileName: "scan.pdf", FileContent: content}

	loc := Locator(a)
	assert.Equal(t, "data:application/pdf;base64,"+content, loc)
	assert.Equal(t, loc, Locator(a))

	mt, got, err := ParseLocator(loc)
	require.NoError(t, err)
	assert.Equal(t, MediaType("application/pdf"), mt)
	assert.Equal(t, content, got)
}

func TestLocatorKeepsMalformedContent(t *testing.T) {
	a := models.Attachment{FileName: "x.png", FileContent: "not base64!!"}
	_, got, err := ParseLocator(Locator(a))
	require.NoError(t, err)
	assert.Equal(t, "not base64!!", got)
}

func TestParseLocatorRejectsOtherURIs(t *testing.T) {
	for _, s := range []string{"https://example.com/a.png", "data:image/png,abc", "data:image/png;base64"} {
		_, _, err := ParseLocator(s)
		assert.ErrorIs(t, err, ErrNotDataURI, s)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "PDF", Extension("scan.pdf"))
	assert.Equal(t, "", Extension("README"))
}

func TestInspectTextPreview(t *testing.T) {
	a := models.Attachment{
		FileName:    "note.txt",
		FileContent: base64.StdEncoding.EncodeToString([]byte("pothole on main road")),
	}
	d, err := Inspect(a)
	require.NoError(t, err)
	assert.Equal(t, "pothole on main road", d.Preview)
	assert.Zero(t, d.Pages)
}

func TestInspectLongTextIsTruncated(t *testing.T) {
	long := strings.Repeat("é", 200)
	a := models.Attachment{FileName: "long.txt", FileContent: base64.StdEncoding.EncodeToString([]byte(long))}
	d, err := Inspect(a)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(d.Preview, "…"))
	assert.Equal(t, strings.Repeat("é", textPreviewBytes/2)+"…", d.Preview)
}

// minimalPDF builds a valid document of n blank pages with an exact xref table.
func minimalPDF(n int) []byte {
	kids := make([]string, n)
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(b.String())
}

func TestInspectPDFCountsPages(t *testing.T) {
	for _, n := range []int{1, 3} {
		a := models.Attachment{FileName: "scan.pdf", FileContent: base64.StdEncoding.EncodeToString(minimalPDF(n))}
		d, err := Inspect(a)
		require.NoError(t, err)
		assert.Equal(t, n, d.Pages)
		assert.Empty(t, d.Preview)
	}
}

func TestInspectBadPDFReportsError(t *testing.T) {
	a := models.Attachment{FileName: "scan.pdf", FileContent: base64.StdEncoding.EncodeToString([]byte("nope"))}
	_, err := Inspect(a)
	assert.Error(t, err)
}

func TestInspectIgnoresImages(t *testing.T) {
	d, err := Inspect(models.Attachment{FileName: "a.png", FileContent: "%%%"})
	require.NoError(t, err)
	assert.Equal(t, Details{}, d)
}
