package orders

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/erazemk/vitrina/internal/model"
)

// UnknownCustomer stands in for the username of a deleted or missing user.
const UnknownCustomer = "Cliente"

// FormatNotification renders an order as the WhatsApp message sent to the
// store. Item notes and the order notes block only appear when non-empty.
func FormatNotification(order *model.Order, username string) string {
	if username == "" {
		username = UnknownCustomer
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Novo Pedido #%d*\n", order.ID)
	fmt.Fprintf(&b, "👤 Cliente: %s\n", username)
	fmt.Fprintf(&b, "📅 Data: %s\n", order.CreatedAt.UTC().Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "📦 Total de itens: %d\n\n", order.TotalItems)
	b.WriteString("*Itens do Pedido:*\n")

	for i, item := range order.Items {
		fmt.Fprintf(&b, "\n%d. *%s*\n", i+1, item.ProductName)
		fmt.Fprintf(&b, "   Marca: %s\n", item.ProductBrand)
		fmt.Fprintf(&b, "   Quantidade: %d\n", item.Quantity)
		if item.Notes != "" {
			fmt.Fprintf(&b, "   Obs: %s\n", item.Notes)
		}
	}

	if order.Notes != "" {
		fmt.Fprintf(&b, "\n📝 *Observações do pedido:*\n%s", order.Notes)
	}
	return b.String()
}

// WhatsAppLink returns a wa.me link that opens a chat with number prefilled
// with message. Non-digits in number are ignored.
func WhatsAppLink(number, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text
}
