// Command storefront is a small demo client: it browses the catalogue,
// fills a guest cart, logs in to trigger the merge, and places an
// order, printing the state after each step.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Ziroworld/ailav-client/api"
	"github.com/Ziroworld/ailav-client/cart"
	"github.com/Ziroworld/ailav-client/config"
	apperrors "github.com/Ziroworld/ailav-client/errors"
	"github.com/Ziroworld/ailav-client/logger"
	"github.com/Ziroworld/ailav-client/models"
	"github.com/Ziroworld/ailav-client/session"
	"github.com/Ziroworld/ailav-client/storage"
)

func main() {
	email := flag.String("email", "customer@ailav.dev", "account to log in with")
	password := flag.String("password", "customer123", "account password")
	checkout := flag.Bool("checkout", false, "place an order after logging in")
	flag.Parse()

	cfg := config.LoadClient()
	logger.Initialize(cfg.Env)
	defer logger.Log.Sync() //nolint:errcheck

	guestDB, err := storage.Open(cfg.GuestCartPath)
	if err != nil {
		log.Fatalf("opening guest cart store: %v", err)
	}
	defer guestDB.Close()

	mgr := session.NewManager(session.Config{
		BaseURL: cfg.APIBaseURL,
		Logger:  logger.Log,
	})
	defer mgr.Close()

	store := cart.NewStore(cart.Config{
		Session: mgr,
		Storage: guestDB,
		Logger:  logger.Log,
	})

	ctx := context.Background()

	products, err := api.NewProductAPI(mgr).List(ctx)
	if err != nil {
		log.Fatalf("listing products: %v", err)
	}
	if len(products) == 0 {
		log.Fatal("catalogue is empty; is the devserver running?")
	}
	fmt.Printf("Catalogue: %d products\n", len(products))

	// Shop as a guest first.
	if err := store.AddItem(ctx, products[0], 2); err != nil {
		log.Fatalf("guest add: %v", err)
	}
	printCart("Guest cart", store.Items())

	// Log in; the guest cart merges into the server cart.
	user, err := mgr.Login(ctx, session.Credentials{Email: *email, Password: *password})
	if err != nil {
		var mergeErr *apperrors.MergeError
		if errors.As(err, &mergeErr) {
			fmt.Fprintf(os.Stderr, "warning: %v (will retry on next login)\n", mergeErr)
		} else {
			log.Fatalf("login: %v", err)
		}
	}
	fmt.Printf("Logged in as %s (%s)\n", user.Name, user.ID)
	printCart("Merged cart", store.Items())

	if *checkout {
		lines := store.Items()
		orderItems := make([]models.OrderLine, 0, len(lines.Items))
		for _, l := range lines.Items {
			orderItems = append(orderItems, models.OrderLine{
				ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice,
			})
		}
		order, err := api.NewOrderAPI(mgr).Create(ctx, api.CreateOrderRequest{
			UserID:        user.ID,
			Items:         orderItems,
			PaymentMethod: "cod",
		})
		if err != nil {
			log.Fatalf("checkout: %v", err)
		}
		fmt.Printf("Order %s placed, total %.2f\n", order.ID, order.Total)

		if err := store.Refresh(ctx); err != nil {
			log.Fatalf("refreshing cart: %v", err)
		}
		printCart("Cart after checkout", store.Items())
	}

	mgr.Logout(ctx)
	fmt.Println("Logged out")
}

func printCart(label string, c models.Cart) {
	fmt.Printf("%s (%d items):\n", label, c.TotalQuantity())
	for _, line := range c.Items {
		fmt.Printf("  %-24s x%d  %.2f\n", line.ProductName, line.Quantity, line.UnitPrice)
	}
}
