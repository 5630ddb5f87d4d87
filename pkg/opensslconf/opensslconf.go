package opensslconf

import (
	"fmt"
	"strings"

	"github.com/wrouesnel/csrgen/pkg/models"
)

// DefaultBits is the RSA key size written to the req section.
const DefaultBits = 2048

const reqSection = "req"
const dnSection = "req_distinguished_name"
const extSection = "v3_req"
const altNamesSection = "alt_names"

const keyUsage = "keyEncipherment, dataEncipherment"
const extendedKeyUsage = "serverAuth"

// Render produces the OpenSSL request configuration for the given subject
// and alternative names.
func Render(subject models.SubjectInfo, alts models.AlternativeNames) string {
	return RenderWithBits(DefaultBits, subject, alts)
}

// RenderWithBits is Render with an explicit default_bits value.
func RenderWithBits(bits int, subject models.SubjectInfo, alts models.AlternativeNames) string {
	b := &strings.Builder{}

	b.WriteString("\n")
	section(b, reqSection)
	pair(b, "default_bits", fmt.Sprintf("%d", bits))
	pair(b, "distinguished_name", dnSection)
	pair(b, "req_extensions", extSection)
	pair(b, "prompt", "no")

	b.WriteString("\n")
	section(b, dnSection)
	pair(b, "C", subject.Country)
	pair(b, "ST", subject.State)
	pair(b, "L", subject.City)
	pair(b, "O", subject.Organization)
	pair(b, "OU", subject.OrganizationalUnit)
	pair(b, "CN", subject.CommonName)
	pair(b, "emailAddress", subject.Email)

	b.WriteString("\n")
	section(b, extSection)
	pair(b, "keyUsage", keyUsage)
	pair(b, "extendedKeyUsage", extendedKeyUsage)

	if len(alts) > 0 {
		pair(b, "subjectAltName", "@"+altNamesSection)
		b.WriteString("\n")
		section(b, altNamesSection)
		for idx, name := range alts {
			pair(b, fmt.Sprintf("DNS.%d", idx+1), name)
		}
	}

	return b.String()
}

func section(b *strings.Builder, name string) {
	fmt.Fprintf(b, "[%s]\n", name)
}

func pair(b *strings.Builder, key string, value string) {
	fmt.Fprintf(b, "%s = %s\n", key, value)
}
