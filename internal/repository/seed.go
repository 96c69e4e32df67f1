package repository

import "github.com/godilite/urbanscore/internal/repository/models"

// DefaultContent is the editorial content shipped with the application for the
// Montréal boroughs that have a curated detail page.
func DefaultContent() []models.NeighborhoodContent {
	return []models.NeighborhoodContent{
		{
			Name:        "Rosemont",
			Description: "Découvrez les informations clés du quartier Rosemont",
			Strengths:   []string{"Nombreux parcs et services", "Excellent accès au transport"},
			Weaknesses:  []string{"Loyers plus élevés"},
		},
		{
			Name:        "Plateau-Mont-Royal",
			Description: "Découvrez les informations clés du quartier Plateau-Mont-Royal",
			Strengths:   []string{"Vie culturelle vibrante", "Nombreux restaurants et cafés"},
			Weaknesses:  []string{"Coût de logement élevé", "Stationnement difficile"},
		},
		{
			Name:        "Villeray",
			Description: "Découvrez les informations clés du quartier Villeray",
			Strengths:   []string{"Bon équilibre qualité-prix", "Quartier familial"},
			Weaknesses:  []string{"Moins d'options de divertissement"},
		},
		{
			Name:        "Outremont",
			Description: "Découvrez les informations clés du quartier Outremont",
			Strengths:   []string{"Quartier résidentiel calme", "Excellentes écoles"},
			Weaknesses:  []string{"Moins accessible en transport", "Prix élevés"},
		},
	}
}
