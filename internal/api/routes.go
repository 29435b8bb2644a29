package api

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts every protected endpoint on r. Authentication is the
// caller's concern.
func RegisterRoutes(r chi.Router, units *UnitHandler, alignment *AlignmentHandler) {
	r.Get("/catalogs/{kind}", alignment.GetCatalog)
	r.Post("/suggestions", alignment.SuggestTexts)

	r.Post("/units", units.CreateUnit)
	r.Route("/units/{unitID}", func(r chi.Router) {
		r.Get("/", units.GetUnit)

		r.Post("/ulos", units.AddULO)
		r.Delete("/ulos/{uloID}", units.DeleteULO)
		r.Put("/ulos/{uloID}/materials/{materialID}", units.LinkMaterial)
		r.Delete("/ulos/{uloID}/materials/{materialID}", units.UnlinkMaterial)
		r.Put("/ulos/{uloID}/assessments/{assessmentID}", units.LinkAssessment)
		r.Delete("/ulos/{uloID}/assessments/{assessmentID}", units.UnlinkAssessment)
		r.Put("/ulos/{uloID}/capabilities/{code}", alignment.SelectCapability)
		r.Delete("/ulos/{uloID}/capabilities/{code}", alignment.RemoveCapability)

		r.Post("/materials", units.AddMaterial)
		r.Patch("/materials/{materialID}/status", units.UpdateMaterialStatus)
		r.Delete("/materials/{materialID}", units.DeleteMaterial)

		r.Post("/assessments", units.AddAssessment)
		r.Patch("/assessments/{assessmentID}/status", units.UpdateAssessmentStatus)
		r.Delete("/assessments/{assessmentID}", units.DeleteAssessment)

		r.Post("/outcomes", units.AddOutcome)

		r.Get("/mappings", alignment.GetMappings)
		r.Put("/mappings/competencies/{code}", alignment.SetCompetency)
		r.Delete("/mappings/competencies/{code}", alignment.ClearCompetency)
		r.Put("/mappings/sdgs/{code}", alignment.SelectGoal)
		r.Delete("/mappings/sdgs/{code}", alignment.RemoveGoal)

		r.Post("/suggestions/preview", alignment.PreviewSuggestions)
		r.Post("/suggestions/apply", alignment.ApplySuggestions)

		r.Get("/reports", alignment.Reports)
		r.Get("/reports/alignment", alignment.AlignmentReport)
		r.Get("/reports/grades", alignment.GradeDistribution)
		r.Get("/reports/quality", alignment.QualityScore)
		r.Get("/reports/workload", alignment.WeeklyWorkload)
	})
}
