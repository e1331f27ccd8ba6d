package domain

import "github.com/supabase-community/supabase-go"

type SupabaseClient interface {
	Initialize() error
	Enabled() bool

	DB() *supabase.Client
}
