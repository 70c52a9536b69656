package app

import (
	"fmt"
	"strings"

	"bizadvisor/internal/index"
	"bizadvisor/internal/search"
)

const personaPreamble = `Kamu adalah "Business AI Pro", AI Business Consultant yang profesional, cerdas, dan membantu, dengan pengalaman luas di bidang strategi bisnis, pemasaran, keuangan, manajemen, dan pengembangan produk.`

func plainSystemPrompt() string {
	return personaPreamble + `

Berikan jawaban yang komprehensif, terstruktur, dan bermanfaat.
Format respons menggunakan Markdown untuk meningkatkan keterbacaan.`
}

func groundedSystemPrompt(retrieved []index.Scored) string {
	var ctx strings.Builder
	for _, item := range retrieved {
		ctx.WriteString("\n---\n")
		ctx.WriteString(item.Chunk.Text)
	}
	ctx.WriteString("\n---")

	return personaPreamble + `

Konten berikut adalah informasi relevan yang ditemukan dari dokumen yang diunggah:
` + ctx.String() + `

Berikan jawaban yang komprehensif, akurat, dan bermanfaat berdasarkan informasi yang diberikan.
Jika jawaban tidak ditemukan dalam informasi yang tersedia, katakan dengan jujur bahwa kamu
tidak dapat menjawab berdasarkan dokumen yang diunggah, tapi berikan jawaban berdasarkan
pengetahuan umummu.

Selalu ingat konteks dari percakapan sebelumnya agar jawaban tetap konsisten.
Berikan format yang rapi dengan poin-poin dan penekanan pada bagian penting.`
}

func webSummaryPrompt(query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Berikut adalah hasil pencarian web untuk %q:\n\n", query)
	for _, r := range results {
		fmt.Fprintf(&b, "Judul: %s\nLink: %s\nSnippet: %s\n\n", r.Title, r.Link, r.Snippet)
	}
	b.WriteString(`Berdasarkan hasil pencarian di atas, berikan ringkasan yang komprehensif dan terstruktur.
Fokus pada informasi yang paling relevan dengan bisnis dan perusahaan.
Format respons dengan poin-poin dan struktur yang jelas.
Sertakan informasi sumber (nama situs) saat menampilkan fakta penting.`)
	return b.String()
}

func webSourcesFooter(results []search.Result) string {
	var b strings.Builder
	b.WriteString("\n\n**Sumber Informasi:**\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- [%s](%s)\n", r.Title, r.Link)
	}
	return b.String()
}
