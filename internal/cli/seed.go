package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/claims-service/internal/bootstrap"
	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/service"
)

type seedArea struct {
	name        string
	description string
	subAreas    [][2]string
}

var defaultAreas = []seedArea{
	{"VENTAS", "Área de ventas y atención al cliente", [][2]string{
		{"Atención al Cliente", "Atención directa a clientes y consultas comerciales"},
		{"Pre-venta", "Procesos de pre-venta y cotizaciones"},
	}},
	{"SOPORTE_TECNICO", "Área de soporte técnico y resolución de problemas", [][2]string{
		{"Soporte N1", "Soporte técnico de primer nivel"},
		{"Soporte N2", "Soporte técnico especializado"},
	}},
	{"FACTURACION", "Área de facturación y cobranzas", [][2]string{
		{"Facturación", "Emisión de facturas y documentos"},
	}},
	{"DESARROLLO", "Área de desarrollo de software y nuevas funcionalidades", [][2]string{
		{"Frontend", "Desarrollo de interfaces de usuario"},
		{"Backend", "Desarrollo de servidores y APIs"},
	}},
	{"ADMINISTRACION", "Área administrativa y gestión general", [][2]string{
		{"Recursos Humanos", "Gestión de personal y nóminas"},
	}},
}

var demoClients = []domain.Client{
	{Name: "Empresa Tech Solutions SA", Email: "cliente1@empresa.com"},
	{Name: "Consultoría XYZ", Email: "info@consultoriaxyz.com"},
	{Name: "Retail Corp", Email: "ventas@retailcorp.com"},
	{Name: "Startup Innovadora", Email: "laura@startup.com"},
}

type seedReport struct {
	AreasCreated    int      `json:"areas_created"`
	SubAreasCreated int      `json:"sub_areas_created"`
	ClientIDs       []string `json:"client_ids"`
}

func (rt *app) seedCommand() *cobra.Command {
	var withClients bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default area catalog",
		Long:  "Create the default areas and sub-areas. Existing entries are kept, so the command can be rerun.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := rt.config()
			if err != nil {
				return err
			}
			container, err := bootstrap.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer container.Close()
			if container.Postgres.PoolHandle() == nil {
				logger.Warn("seeding the in-memory store; data is discarded on exit")
			}

			report, err := seed(cmd.Context(), container, withClients)
			if err != nil {
				return err
			}
			if rt.jsonOutput {
				return rt.printJSON(report)
			}
			fmt.Fprintf(rt.opts.Out, "areas created: %d\nsub-areas created: %d\nclients created: %d\n",
				report.AreasCreated, report.SubAreasCreated, len(report.ClientIDs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withClients, "clients", false, "Also create demo clients")
	return cmd
}

func seed(ctx context.Context, c *bootstrap.Container, withClients bool) (*seedReport, error) {
	report := &seedReport{ClientIDs: []string{}}

	existing, err := c.Areas.ListAreas(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]domain.Area, len(existing))
	for _, area := range existing {
		byName[strings.ToLower(area.Name)] = area
	}

	for _, def := range defaultAreas {
		area, ok := byName[strings.ToLower(def.name)]
		if !ok {
			created, err := c.Areas.CreateArea(ctx, service.CreateAreaInput{Name: def.name, Description: def.description})
			if err != nil {
				return nil, fmt.Errorf("create area %s: %w", def.name, err)
			}
			area = *created
			report.AreasCreated++
		}

		subs, err := c.Areas.ListSubAreas(ctx, area.ID)
		if err != nil {
			return nil, err
		}
		have := make(map[string]bool, len(subs))
		for _, sub := range subs {
			have[strings.ToLower(sub.Name)] = true
		}
		for _, sub := range def.subAreas {
			if have[strings.ToLower(sub[0])] {
				continue
			}
			if _, err := c.Areas.CreateSubArea(ctx, service.CreateSubAreaInput{AreaID: area.ID, Name: sub[0], Description: sub[1]}); err != nil {
				return nil, fmt.Errorf("create sub-area %s: %w", sub[0], err)
			}
			report.SubAreasCreated++
		}
	}

	if withClients {
		for _, def := range demoClients {
			client := def
			client.IsActive = true
			if err := c.Repos.Clients.CreateClient(ctx, &client); err != nil {
				return nil, fmt.Errorf("create client %s: %w", def.Name, err)
			}
			report.ClientIDs = append(report.ClientIDs, client.ID)
		}
	}
	return report, nil
}
